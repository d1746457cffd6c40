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

type ProjectRepository struct {
	col *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{col: db.Collection(collectionProjects)}
}

type projectDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Title           string             `bson:"title"`
	Description     string             `bson:"description"`
	Owner           primitive.ObjectID `bson:"owner"`
	Status          string             `bson:"status"`
	StartDate       *time.Time         `bson:"start_date,omitempty"`
	EndDate         *time.Time         `bson:"end_date,omitempty"`
	MaxStudents     int                `bson:"max_students"`
	EstimatedMonths int                `bson:"estimated_months"`
	CreatedAt       time.Time          `bson:"created_at"`
}

func newProjectDoc(p *domain.Project) (projectDoc, error) {
	owner, err := primitive.ObjectIDFromHex(p.OwnerID)
	if err != nil {
		return projectDoc{}, fmt.Errorf("%w: malformed owner id", domain.ErrValidation)
	}
	return projectDoc{
		Title:           p.Title,
		Description:     p.Description,
		Owner:           owner,
		Status:          string(p.Status),
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		MaxStudents:     p.MaxStudents,
		EstimatedMonths: p.EstimatedMonths,
		CreatedAt:       p.CreatedAt,
	}, nil
}

func (d *projectDoc) toDomain() *domain.Project {
	p := &domain.Project{
		ID:              d.ID.Hex(),
		Title:           d.Title,
		Description:     d.Description,
		OwnerID:         d.Owner.Hex(),
		Status:          domain.ProjectStatus(d.Status),
		MaxStudents:     d.MaxStudents,
		EstimatedMonths: d.EstimatedMonths,
		CreatedAt:       d.CreatedAt.UTC(),
	}
	if d.StartDate != nil {
		t := d.StartDate.UTC()
		p.StartDate = &t
	}
	if d.EndDate != nil {
		t := d.EndDate.UTC()
		p.EndDate = &t
	}
	return p
}

// Create inserts a new project document and sets its ID.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	doc, err := newProjectDoc(p)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	p.ID = insertedHex(res)
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	oid, err := objectID(id, domain.ErrProjectNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc projectDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByIDs returns the projects that exist among ids, in no particular order.
func (r *ProjectRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Project, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*domain.Project{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

// List returns all projects, newest first. A non-empty ownerID restricts the
// result to that teacher's projects.
func (r *ProjectRepository) List(ctx context.Context, ownerID string) ([]*domain.Project, error) {
	filter := bson.M{}
	if ownerID != "" {
		oid, err := primitive.ObjectIDFromHex(ownerID)
		if err != nil {
			return []*domain.Project{}, nil
		}
		filter["owner"] = oid
	}
	return r.find(ctx, filter)
}

func (r *ProjectRepository) find(ctx context.Context, filter bson.M) ([]*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer cur.Close(ctx)

	var docs []projectDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	out := make([]*domain.Project, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// Replace overwrites the mutable fields of an existing project. The owner is
// part of the filter so it can never be reassigned.
func (r *ProjectRepository) Replace(ctx context.Context, p *domain.Project) error {
	oid, err := objectID(p.ID, domain.ErrProjectNotFound)
	if err != nil {
		return err
	}
	doc, err := newProjectDoc(p)
	if err != nil {
		return err
	}
	doc.ID = oid

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": oid, "owner": doc.Owner}, doc)
	if err != nil {
		return fmt.Errorf("replace project: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrProjectNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
