package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"career-roadmap/internal/domain"
	"career-roadmap/internal/repository"
)

const usersCollection = "users"

type userDocument struct {
	ID             bson.ObjectID     `bson:"_id,omitempty"`
	Username       string            `bson:"username"`
	Email          string            `bson:"email"`
	Password       string            `bson:"password"`
	ResumeText     string            `bson:"resumeText"`
	ResumeKey      string            `bson:"resumeKey"`
	TargetRole     string            `bson:"targetRole"`
	Analysis       *domain.Analysis  `bson:"analysis,omitempty"`
	Roadmap        []domain.WeekPlan `bson:"roadmap"`
	CompletedTasks []string          `bson:"completedTasks"`
	CreatedAt      time.Time         `bson:"createdAt"`
	UpdatedAt      time.Time         `bson:"updatedAt"`
}

type UserRepository struct {
	users *mongo.Collection
}

func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &UserRepository{users: db.Collection(usersCollection)}
}

func (r *UserRepository) Init(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	doc := toDocument(user)
	doc.ID = bson.NewObjectID()

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert user %s: %w", user.Email, repository.ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) SavePlan(ctx context.Context, id string, update repository.PlanUpdate) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	roadmap := update.Roadmap
	if roadmap == nil {
		roadmap = []domain.WeekPlan{}
	}

	res, err := r.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"resumeText":     update.ResumeText,
		"resumeKey":      update.ResumeKey,
		"targetRole":     update.TargetRole,
		"analysis":       update.Analysis,
		"roadmap":        roadmap,
		"completedTasks": []string{},
		"updatedAt":      time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetTaskCompleted(ctx context.Context, id, taskID string, done bool) ([]string, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	op := "$pull"
	if done {
		op = "$addToSet"
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"completedTasks": 1})

	var doc userDocument
	err = r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{
			op:     bson.M{"completedTasks": taskID},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update completed tasks: %w", err)
	}
	if doc.CompletedTasks == nil {
		doc.CompletedTasks = []string{}
	}
	return doc.CompletedTasks, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return fromDocument(doc), nil
}

func toDocument(u *domain.User) userDocument {
	roadmap := u.Roadmap
	if roadmap == nil {
		roadmap = []domain.WeekPlan{}
	}
	completed := u.CompletedTasks
	if completed == nil {
		completed = []string{}
	}
	return userDocument{
		Username:       u.Username,
		Email:          u.Email,
		Password:       u.PasswordHash,
		ResumeText:     u.ResumeText,
		ResumeKey:      u.ResumeKey,
		TargetRole:     u.TargetRole,
		Analysis:       u.Analysis,
		Roadmap:        roadmap,
		CompletedTasks: completed,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func fromDocument(doc userDocument) *domain.User {
	return &domain.User{
		ID:             doc.ID.Hex(),
		Username:       doc.Username,
		Email:          doc.Email,
		PasswordHash:   doc.Password,
		ResumeText:     doc.ResumeText,
		ResumeKey:      doc.ResumeKey,
		TargetRole:     doc.TargetRole,
		Analysis:       doc.Analysis,
		Roadmap:        doc.Roadmap,
		CompletedTasks: doc.CompletedTasks,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

var _ repository.UserRepository = (*UserRepository)(nil)
