package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type linksDoc struct {
	LinkedIn string `bson:"linkedin,omitempty"`
	GitHub   string `bson:"github,omitempty"`
	Website  string `bson:"website,omitempty"`
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Surname      string             `bson:"surname"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Role         string             `bson:"role"`
	University   string             `bson:"university,omitempty"`
	Department   string             `bson:"department,omitempty"`
	Title        string             `bson:"title,omitempty"`
	Class        string             `bson:"class,omitempty"`
	About        string             `bson:"about,omitempty"`
	Skills       []string           `bson:"skills"`
	Links        linksDoc           `bson:"links"`
	AvatarURL    string             `bson:"avatar_url,omitempty"`
	CVURL        string             `bson:"cv_url,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	ResetCode    string             `bson:"reset_password_code,omitempty"`
	ResetExpires *time.Time         `bson:"reset_password_expires,omitempty"`
}

func (d *userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Surname:      d.Surname,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		University:   d.University,
		Department:   d.Department,
		Title:        d.Title,
		Class:        d.Class,
		About:        d.About,
		Skills:       d.Skills,
		Links:        domain.Links(d.Links),
		AvatarURL:    d.AvatarURL,
		CVURL:        d.CVURL,
		CreatedAt:    d.CreatedAt.UTC(),
		ResetCode:    d.ResetCode,
	}
	if u.Skills == nil {
		u.Skills = []string{}
	}
	if d.ResetExpires != nil {
		u.ResetExpiresAt = d.ResetExpires.UTC()
	}
	return u
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDoc{
		Name:         user.Name,
		Surname:      user.Surname,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		University:   user.University,
		Department:   user.Department,
		Title:        user.Title,
		Class:        user.Class,
		About:        user.About,
		Skills:       user.Skills,
		Links:        linksDoc(user.Links),
		CreatedAt:    user.CreatedAt,
	}
	if doc.Skills == nil {
		doc.Skills = []string{}
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = insertedHex(res)
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context, filter ports.UserFilter) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Role != "" {
		query["role"] = string(filter.Role)
	}
	if filter.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"surname": rx},
			bson.M{"email": rx},
		}
	}

	cur, err := r.col.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]*domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	setIf := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	setIf("name", update.Name)
	setIf("surname", update.Surname)
	setIf("university", update.University)
	setIf("department", update.Department)
	setIf("title", update.Title)
	setIf("class", update.Class)
	setIf("about", update.About)
	if update.Skills != nil {
		set["skills"] = *update.Skills
	}
	if update.Links != nil {
		set["links"] = linksDoc(*update.Links)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) SetResetCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"reset_password_code":    code,
		"reset_password_expires": expiresAt.UTC(),
	}})
	if err != nil {
		return fmt.Errorf("set reset code: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ResetPassword(ctx context.Context, email, code, passwordHash string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"email":                  email,
		"reset_password_code":    code,
		"reset_password_expires": bson.M{"$gt": now.UTC()},
	}
	update := bson.M{
		"$set":   bson.M{"password": passwordHash},
		"$unset": bson.M{"reset_password_code": "", "reset_password_expires": ""},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvalidResetCode
	}
	return nil
}
