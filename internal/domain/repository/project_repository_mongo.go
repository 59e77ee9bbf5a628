package repository

import (
	"context"
	"errors"
	"fmt"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const projectsCollection = "projects"

type projectDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	Slug            string             `bson:"slug"`
	Description     string             `bson:"description"`
	CreatedByUserID string             `bson:"created_by_user_id"`
	MemberIDs       []string           `bson:"member_ids"`
	Status          string             `bson:"status"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func (d *projectDocument) toModel() *model.Project {
	return &model.Project{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Slug:            d.Slug,
		Description:     d.Description,
		CreatedByUserID: d.CreatedByUserID,
		MemberIDs:       nonNilStrings(d.MemberIDs),
		Status:          model.ProjectStatus(d.Status),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type mongoProjectRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoProjectRepository(db *mongo.Database) ProjectRepository {
	return &mongoProjectRepository{coll: db.Collection(projectsCollection), now: time.Now}
}

func (r *mongoProjectRepository) Create(ctx context.Context, p *model.Project) error {
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := projectDocument{
		ID:              primitive.NewObjectID(),
		Name:            p.Name,
		Slug:            p.Slug,
		Description:     p.Description,
		CreatedByUserID: p.CreatedByUserID,
		MemberIDs:       nonNilStrings(p.MemberIDs),
		Status:          string(p.Status),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongoProjectRepository.Create: %w", err)
	}
	p.ID = doc.ID.Hex()
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *mongoProjectRepository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	var doc projectDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongoProjectRepository.FindByID: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoProjectRepository) List(ctx context.Context, status *model.ProjectStatus) ([]*model.Project, error) {
	filter := bson.M{}
	if status != nil {
		filter["status"] = string(*status)
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongoProjectRepository.List: %w", err)
	}
	var docs []projectDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongoProjectRepository.List: %w", err)
	}
	projects := make([]*model.Project, 0, len(docs))
	for i := range docs {
		projects = append(projects, docs[i].toModel())
	}
	return projects, nil
}
