package models

type Option struct {
	ID   string `bson:"id" json:"id"`
	Text string `bson:"text" json:"text"`
}

type Question struct {
	ID            string   `bson:"_id,omitempty" json:"id"`
	Content       string   `bson:"content" json:"content"`
	Options       []Option `bson:"options" json:"options"`
	CorrectAnswer string   `bson:"correct_answer" json:"correct_answer"`
	CategoryID    string   `bson:"category_id" json:"category_id"`
}

type Category struct {
	ID   string `bson:"_id,omitempty" json:"id"`
	Name string `bson:"name" json:"name"`
}
