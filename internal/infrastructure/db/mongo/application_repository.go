package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mindmesh/mentorship/internal/core/domain"
)

// ApplicationRepository stores applications. The unique index on
// (project_id, student_id) created by EnsureIndexes is what makes Create
// race-free.
type ApplicationRepository struct {
	col *mongo.Collection
}

func NewApplicationRepository(db *mongo.Database) *ApplicationRepository {
	return &ApplicationRepository{col: db.Collection(collectionApplications)}
}

type applicationDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ProjectID primitive.ObjectID `bson:"project_id"`
	StudentID primitive.ObjectID `bson:"student_id"`
	Status    string             `bson:"status"`
	IsMentor  bool               `bson:"is_mentor"`
	Message   string             `bson:"message,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *applicationDoc) toDomain() *domain.Application {
	return &domain.Application{
		ID:        d.ID.Hex(),
		ProjectID: d.ProjectID.Hex(),
		StudentID: d.StudentID.Hex(),
		Status:    domain.ApplicationStatus(d.Status),
		IsMentor:  d.IsMentor,
		Message:   d.Message,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	projectID, err := objectID(app.ProjectID, domain.ErrProjectNotFound)
	if err != nil {
		return err
	}
	studentID, err := objectID(app.StudentID, domain.ErrUserNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, applicationDoc{
		ProjectID: projectID,
		StudentID: studentID,
		Status:    string(app.Status),
		IsMentor:  app.IsMentor,
		Message:   app.Message,
		CreatedAt: app.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateApplication
		}
		return fmt.Errorf("insert application: %w", err)
	}
	app.ID = insertedHex(res)
	return nil
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*domain.Application, error) {
	oid, err := objectID(id, domain.ErrApplicationNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *ApplicationRepository) FindByProjectAndStudent(ctx context.Context, projectID, studentID string) (*domain.Application, error) {
	pid, err := objectID(projectID, domain.ErrApplicationNotFound)
	if err != nil {
		return nil, err
	}
	sid, err := objectID(studentID, domain.ErrApplicationNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"project_id": pid, "student_id": sid})
}

func (r *ApplicationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc applicationDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ApplicationRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Application, error) {
	pid, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return []*domain.Application{}, nil
	}
	return r.find(ctx, bson.M{"project_id": pid})
}

func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID string, status domain.ApplicationStatus) ([]*domain.Application, error) {
	sid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return []*domain.Application{}, nil
	}
	filter := bson.M{"student_id": sid}
	if status != "" {
		filter["status"] = string(status)
	}
	return r.find(ctx, filter)
}

func (r *ApplicationRepository) find(ctx context.Context, filter bson.M) ([]*domain.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer cur.Close(ctx)

	var docs []applicationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}
	out := make([]*domain.Application, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// UpdateState persists the two teacher-mutable fields, status and is_mentor.
func (r *ApplicationRepository) UpdateState(ctx context.Context, app *domain.Application) error {
	oid, err := objectID(app.ID, domain.ErrApplicationNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"status":    string(app.Status),
		"is_mentor": app.IsMentor,
	}})
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}

func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrApplicationNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}

func (r *ApplicationRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	pid, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"project_id": pid})
	if err != nil {
		return 0, fmt.Errorf("delete applications: %w", err)
	}
	return res.DeletedCount, nil
}
