package mongo

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mindmesh/mentorship/internal/core/domain"
)

func TestObjectID_MalformedIsNotFound(t *testing.T) {
	if _, err := objectID("not-an-id", domain.ErrProjectNotFound); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}

	oid := primitive.NewObjectID()
	got, err := objectID(oid.Hex(), domain.ErrProjectNotFound)
	if err != nil || got != oid {
		t.Fatalf("expected %s, got %s (%v)", oid.Hex(), got.Hex(), err)
	}
}

func TestOptionalObjectID(t *testing.T) {
	if optionalObjectID("") != nil {
		t.Fatal("empty id should map to nil")
	}
	if optionalObjectID("zzz") != nil {
		t.Fatal("malformed id should map to nil")
	}
	oid := primitive.NewObjectID()
	if got := hexOf(optionalObjectID(oid.Hex())); got != oid.Hex() {
		t.Fatalf("round trip failed: %s", got)
	}
}

func TestProjectDoc_RequiresOwner(t *testing.T) {
	_, err := newProjectDoc(&domain.Project{Title: "x", OwnerID: "bad"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProjectDoc_ToDomainKeepsDates(t *testing.T) {
	owner := primitive.NewObjectID()
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	doc, err := newProjectDoc(&domain.Project{
		Title:       "Compilers",
		OwnerID:     owner.Hex(),
		Status:      domain.ProjectActive,
		StartDate:   &start,
		MaxStudents: 2,
	})
	if err != nil {
		t.Fatalf("newProjectDoc: %v", err)
	}
	doc.ID = primitive.NewObjectID()

	p := doc.toDomain()
	if p.OwnerID != owner.Hex() || p.StartDate == nil || !p.StartDate.Equal(start) || p.EndDate != nil {
		t.Fatalf("unexpected project: %+v", p)
	}
}

func TestUserDoc_ToDomainDefaultsSkills(t *testing.T) {
	doc := userDoc{ID: primitive.NewObjectID(), Name: "Ada", Role: "student"}
	u := doc.toDomain()
	if u.Skills == nil || len(u.Skills) != 0 {
		t.Fatalf("expected empty skills slice, got %#v", u.Skills)
	}
	if !u.ResetExpiresAt.IsZero() {
		t.Fatal("expected zero reset expiry")
	}
}

func TestIndexModels_UniqueApplicationPair(t *testing.T) {
	models := indexModels()[collectionApplications]
	for _, m := range models {
		if m.Options != nil && m.Options.Unique != nil && *m.Options.Unique {
			return
		}
	}
	t.Fatal("applications collection has no unique index")
}
