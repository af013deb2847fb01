package mongostore

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cognicore/blogkb/pkg/blogkb/store"
)

// blogRecord is the stored shape of a blog. _id is an ObjectID for blogs
// written by the application and may be a plain string for imported ones.
type blogRecord struct {
	ID            interface{} `bson:"_id"`
	AuthorName    string      `bson:"authorName"`
	AuthorEmail   string      `bson:"authorEmail"`
	Description   string      `bson:"description"`
	Topic         string      `bson:"topic"`
	TopicCategory string      `bson:"topicCategory"`
	Tags          []string    `bson:"tags"`
	Title         string      `bson:"title"`
	Content       string      `bson:"content"`
	Summary       string      `bson:"summary"`
	Likes         int64       `bson:"likes"`
	Views         int64       `bson:"views"`
	CreatedAt     time.Time   `bson:"createdAt"`
	UpdatedAt     time.Time   `bson:"updatedAt"`
}

func (r blogRecord) toDocument() store.SourceDocument {
	return store.SourceDocument{
		ID:            idString(r.ID),
		Title:         r.Title,
		Content:       r.Content,
		Summary:       r.Summary,
		Topic:         r.Topic,
		TopicCategory: r.TopicCategory,
		Tags:          r.Tags,
		AuthorName:    r.AuthorName,
		AuthorEmail:   r.AuthorEmail,
		Description:   r.Description,
		Views:         r.Views,
		Likes:         r.Likes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func fromDocument(d store.SourceDocument) blogRecord {
	var id interface{} = d.ID
	if oid, err := primitive.ObjectIDFromHex(d.ID); err == nil {
		id = oid
	}
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return blogRecord{
		ID:            id,
		AuthorName:    d.AuthorName,
		AuthorEmail:   d.AuthorEmail,
		Description:   d.Description,
		Topic:         d.Topic,
		TopicCategory: d.TopicCategory,
		Tags:          tags,
		Title:         d.Title,
		Content:       d.Content,
		Summary:       d.Summary,
		Likes:         d.Likes,
		Views:         d.Views,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func idString(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
