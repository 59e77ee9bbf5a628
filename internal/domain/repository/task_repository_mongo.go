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

const tasksCollection = "tasks"

type taskDocument struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	ProjectID        string             `bson:"project_id"`
	Name             string             `bson:"name"`
	Description      string             `bson:"description"`
	Status           string             `bson:"status"`
	AssignedToUserID string             `bson:"assigned_to_user_id"`
	DueDate          time.Time          `bson:"due_date"`
	CreatedByUserID  string             `bson:"created_by_user_id"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func (d *taskDocument) toModel() (*model.Task, error) {
	st, err := model.ParseTaskStatus(d.Status)
	if err != nil {
		return nil, err
	}
	return &model.Task{
		ID:               d.ID.Hex(),
		ProjectID:        d.ProjectID,
		Name:             d.Name,
		Description:      d.Description,
		Status:           st,
		AssignedToUserID: d.AssignedToUserID,
		DueDate:          d.DueDate,
		CreatedByUserID:  d.CreatedByUserID,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

type mongoTaskRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoTaskRepository(db *mongo.Database) TaskRepository {
	return &mongoTaskRepository{coll: db.Collection(tasksCollection), now: time.Now}
}

// EnsureTaskIndexes indexes tasks by project for the per-project listing.
func EnsureTaskIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(tasksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "due_date", Value: 1}},
		Options: options.Index().SetName("project_due"),
	})
	if err != nil {
		return fmt.Errorf("create task indexes: %w", err)
	}
	return nil
}

// CreateMany inserts the batch in one ordered insertMany. On failure the
// already written prefix is removed again.
func (r *mongoTaskRepository) CreateMany(ctx context.Context, tasks []*model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	docs := make([]interface{}, len(tasks))
	ids := make([]primitive.ObjectID, len(tasks))
	for i, t := range tasks {
		ids[i] = primitive.NewObjectID()
		docs[i] = taskDocument{
			ID:               ids[i],
			ProjectID:        t.ProjectID,
			Name:             t.Name,
			Description:      t.Description,
			Status:           string(t.Status),
			AssignedToUserID: t.AssignedToUserID,
			DueDate:          t.DueDate.UTC(),
			CreatedByUserID:  t.CreatedByUserID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	}

	if _, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		if _, cleanupErr := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); cleanupErr != nil {
			return fmt.Errorf("mongoTaskRepository.CreateMany: %w (cleanup failed: %v)", err, cleanupErr)
		}
		return fmt.Errorf("mongoTaskRepository.CreateMany: %w", err)
	}
	for i, t := range tasks {
		t.ID = ids[i].Hex()
		t.CreatedAt = now
		t.UpdatedAt = now
	}
	return nil
}

func (r *mongoTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	var doc taskDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongoTaskRepository.FindByID: %w", err)
	}
	return doc.toModel()
}

func (r *mongoTaskRepository) ListByProject(ctx context.Context, projectID string) ([]*model.Task, error) {
	cur, err := r.coll.Find(ctx, bson.M{"project_id": projectID}, options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongoTaskRepository.ListByProject: %w", err)
	}
	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongoTaskRepository.ListByProject: %w", err)
	}
	tasks := make([]*model.Task, 0, len(docs))
	for i := range docs {
		t, err := docs[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("mongoTaskRepository.ListByProject: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *mongoTaskRepository) UpdateStatus(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	update := bson.M{"$set": bson.M{"status": string(status), "updated_at": r.now().UTC().Truncate(time.Millisecond)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongoTaskRepository.UpdateStatus: %w", err)
	}
	return doc.toModel()
}
