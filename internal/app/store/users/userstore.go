// internal/app/store/users/userstore.go
package userstore

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Phone: digits-only phone number, unique per user

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/kaziocha/internal/app/system/normalize"
	"github.com/dalemusser/kaziocha/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when the phone or email is already taken.
	ErrDuplicate = errors.New("a user with this phone or email already exists")
	errBadRole   = errors.New("invalid role")
	errNoPhone   = errors.New("phone is required")
)

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users"), now: time.Now}
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByPhone looks up a user by phone. Punctuation in phone is ignored.
func (s *Store) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	p := normalize.Phone(phone)
	if p == "" {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"phone": p})
}

// GetByEmail looks up a user by email (case-insensitive).
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	e := normalize.Email(email)
	if e == "" {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"email": e})
}

// ExistsByPhone reports whether a user with phone exists.
func (s *Store) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	p := normalize.Phone(phone)
	if p == "" {
		return false, nil
	}
	return s.exists(ctx, bson.M{"phone": p})
}

// ExistsByPhoneOrEmail reports whether either identity is already taken.
// An empty email only checks the phone.
func (s *Store) ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error) {
	or := bson.A{}
	if p := normalize.Phone(phone); p != "" {
		or = append(or, bson.M{"phone": p})
	}
	if e := normalize.Email(email); e != "" {
		or = append(or, bson.M{"email": e})
	}
	if len(or) == 0 {
		return false, nil
	}
	return s.exists(ctx, bson.M{"$or": or})
}

func (s *Store) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := s.c.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts a new user after normalizing & validating fields.
// JoinDate and LastLogin default to now.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.Phone = normalize.Phone(u.Phone)
	u.Location = normalize.Name(u.Location)
	u.Role = normalize.Role(u.Role)

	if u.Email != nil {
		if e := normalize.Email(*u.Email); e != "" {
			u.Email = &e
		} else {
			u.Email = nil
		}
	}

	if u.Phone == "" {
		return models.User{}, errNoPhone
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	u.ApplyRoleFields()

	now := s.now().UTC()
	if u.JoinDate.IsZero() {
		u.JoinDate = now
	}
	if u.LastLogin == nil {
		u.LastLogin = &now
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the user-editable profile fields. Nil pointers are
// left unchanged.
type ProfileUpdate struct {
	Name           string
	Location       string
	Specialization *string
	JobType        *string
}

// UpdateProfile applies upd and returns the updated user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{
		"name":      normalize.Name(upd.Name),
		"location":  normalize.Name(upd.Location),
		"updatedAt": s.now().UTC(),
	}
	if upd.Specialization != nil {
		set["specialization"] = normalize.Name(*upd.Specialization)
	}
	if upd.JobType != nil {
		set["jobType"] = normalize.Name(*upd.JobType)
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdatePassword replaces the stored bcrypt hash.
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.updateOne(ctx, id, bson.M{"password": hash, "updatedAt": s.now().UTC()})
}

// TouchLastLogin records a successful sign-in at t.
func (s *Store) TouchLastLogin(ctx context.Context, id primitive.ObjectID, t time.Time) error {
	return s.updateOne(ctx, id, bson.M{"lastLogin": t.UTC()})
}

func (s *Store) updateOne(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByRole returns users with role, newest joinDate first.
func (s *Store) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joinDate", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"role": role}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
