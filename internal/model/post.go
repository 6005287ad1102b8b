package model

// PostDateLayout は記事の作成日を表示用文字列に整形するレイアウト。
const PostDateLayout = "January 02, 2006"

// Post はブログ記事を表す。
// Dateはソート用のタイムスタンプではなく表示用の文字列として保持する。
type Post struct {
	ID       int64
	AuthorID int64
	Title    string
	Subtitle string
	Date     string
	Body     string // サニタイズ済みHTML
	ImgURL   string
}

// Comment は記事へのコメントを表す。
// PostIDには外部キー制約がないため、記事削除後は存在しない記事を指すことがある。
type Comment struct {
	ID          int64
	CommenterID int64
	PostID      int64
	Text        string // サニタイズ済みHTML
}
