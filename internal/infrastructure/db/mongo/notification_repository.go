package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mindmesh/mentorship/internal/core/domain"
)

type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(collectionNotifications)}
}

type notificationDoc struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	User        primitive.ObjectID  `bson:"user"`
	RelatedUser *primitive.ObjectID `bson:"related_user,omitempty"`
	Project     *primitive.ObjectID `bson:"project,omitempty"`
	Message     string              `bson:"message"`
	Type        string              `bson:"type"`
	Read        bool                `bson:"read"`
	CreatedAt   time.Time           `bson:"created_at"`
}

func (d *notificationDoc) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:            d.ID.Hex(),
		UserID:        d.User.Hex(),
		RelatedUserID: hexOf(d.RelatedUser),
		ProjectID:     hexOf(d.Project),
		Message:       d.Message,
		Type:          domain.NotificationType(d.Type),
		Read:          d.Read,
		CreatedAt:     d.CreatedAt.UTC(),
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	user, err := objectID(n.UserID, domain.ErrUserNotFound)
	if err != nil {
		return err
	}
	typ := n.Type
	if typ == "" {
		typ = domain.NotificationOther
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, notificationDoc{
		User:        user,
		RelatedUser: optionalObjectID(n.RelatedUserID),
		Project:     optionalObjectID(n.ProjectID),
		Message:     n.Message,
		Type:        string(typ),
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	n.ID = insertedHex(res)
	n.Type = typ
	return nil
}

// ListByUser returns the user's inbox, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	user, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []*domain.Notification{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"user": user}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer cur.Close(ctx)

	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	out := make([]*domain.Notification, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// MarkRead matches on both id and recipient, so one user cannot touch
// another's inbox.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	oid, err := objectID(id, domain.ErrNotificationNotFound)
	if err != nil {
		return err
	}
	user, err := objectID(userID, domain.ErrNotificationNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid, "user": user}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	user, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx, bson.M{"user": user, "read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}
