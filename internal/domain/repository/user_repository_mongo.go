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

const usersCollection = "users"

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Name      string             `bson:"name"`
	Role      *string            `bson:"role"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *userDocument) toModel() (*model.User, error) {
	st, err := model.ParseUserStatus(d.Status)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:             d.ID.Hex(),
		Email:          d.Email,
		HashedPassword: d.Password,
		Name:           d.Name,
		Status:         st,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if d.Role != nil && *d.Role != "" {
		r := model.Role(*d.Role)
		u.Role = &r
	}
	return u, nil
}

type mongoUserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: db.Collection(usersCollection), now: time.Now}
}

// EnsureUserIndexes creates the unique email index the duplicate check relies on.
func EnsureUserIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("status")},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Email:     user.Email,
		Password:  user.HashedPassword,
		Name:      user.Name,
		Status:    string(user.Status),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if user.Role != nil {
		role := string(*user.Role)
		doc.Role = &role
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("mongoUserRepository.Create: %w", common.ErrDuplicateEmail)
		}
		return fmt.Errorf("mongoUserRepository.Create: %w", err)
	}
	user.ID = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, "FindByEmail")
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, "FindByID")
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M, op string) (*model.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongoUserRepository.%s: %w", op, err)
	}
	return doc.toModel()
}

func (r *mongoUserRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*model.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, "FindByIDs")
}

func (r *mongoUserRepository) ListByStatus(ctx context.Context, status *model.UserStatus) ([]*model.User, error) {
	filter := bson.M{}
	if status != nil {
		filter["status"] = string(*status)
	}
	return r.find(ctx, filter, "ListByStatus")
}

func (r *mongoUserRepository) find(ctx context.Context, filter bson.M, op string) ([]*model.User, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongoUserRepository.%s: %w", op, err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongoUserRepository.%s: %w", op, err)
	}

	users := make([]*model.User, 0, len(docs))
	for i := range docs {
		u, err := docs[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("mongoUserRepository.%s: %w", op, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *mongoUserRepository) UpdateRoleStatus(ctx context.Context, id string, role *model.Role, status model.UserStatus) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}

	var roleValue interface{}
	if role != nil {
		roleValue = string(*role)
	}
	update := bson.M{"$set": bson.M{
		"role":       roleValue,
		"status":     string(status),
		"updated_at": r.now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongoUserRepository.UpdateRoleStatus: %w", err)
	}
	return doc.toModel()
}
