// internal/app/store/jobs/jobstore.go
package jobstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dalemusser/kaziocha/internal/app/store/storeutil"
	"github.com/dalemusser/kaziocha/internal/app/system/normalize"
	"github.com/dalemusser/kaziocha/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Listing limits.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var (
	// ErrNotFound is returned when a job is not found.
	ErrNotFound = errors.New("job not found")
)

// Store provides job persistence.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates a new job store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("jobs"), now: time.Now}
}

// Create inserts a new, active job. Phone numbers are reduced to digits;
// a missing employer ID or name gets a default.
func (s *Store) Create(ctx context.Context, job models.Job) (models.Job, error) {
	now := s.now().UTC()

	job.ID = primitive.NewObjectID()
	job.Phone = normalize.Phone(job.Phone)
	job.Whatsapp = normalize.Phone(job.Whatsapp)
	if job.EmployerID == "" {
		job.EmployerID = "user_" + strconv.FormatInt(now.UnixMilli(), 10)
	}
	if job.EmployerName == "" {
		job.EmployerName = models.DefaultEmployerName
	}
	job.IsActive = true
	job.CreatedAt = now
	job.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, job); err != nil {
		return models.Job{}, err
	}
	return job, nil
}

// GetByID retrieves a job by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	var job models.Job
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&job); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// ListFilter specifies criteria for listing jobs. Only active jobs are listed.
type ListFilter struct {
	Category string
	Location string // case-insensitive substring
	Search   string // case-insensitive substring of title, description or location
}

// ListResult contains a page of jobs with pagination info.
type ListResult struct {
	Jobs  []models.Job
	Total int64
	Page  int64
	Pages int64
}

// List returns active jobs matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter, page, limit int64) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	query := buildQuery(filter)

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return ListResult{}, err
	}

	opts := storeutil.Paginate(limit, page).
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return ListResult{}, err
	}
	defer cur.Close(ctx)

	jobs := []models.Job{}
	if err := cur.All(ctx, &jobs); err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Jobs:  jobs,
		Total: total,
		Page:  page,
		Pages: storeutil.PageCount(total, limit),
	}, nil
}

// buildQuery constructs a MongoDB query from ListFilter.
// User input is quoted before it goes into a regex.
func buildQuery(filter ListFilter) bson.M {
	query := bson.M{"isActive": true}

	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Location != "" {
		query["location"] = storeutil.ContainsFold(filter.Location)
	}
	if filter.Search != "" {
		re := storeutil.ContainsFold(filter.Search)
		query["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"location": re},
		}
	}

	return query
}

// Update holds the editable job fields. Nil pointers are left unchanged.
type Update struct {
	Title        *string
	Description  *string
	Category     *string
	Location     *string
	Salary       *string
	JobType      *string
	Phone        *string
	Whatsapp     *string
	EmployerName *string
	IsActive     *bool
}

func (u Update) set() bson.M {
	set := bson.M{}
	str := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	str("title", u.Title)
	str("description", u.Description)
	str("category", u.Category)
	str("location", u.Location)
	str("salary", u.Salary)
	str("jobType", u.JobType)
	str("employerName", u.EmployerName)
	if u.Phone != nil {
		set["phone"] = normalize.Phone(*u.Phone)
	}
	if u.Whatsapp != nil {
		set["whatsapp"] = normalize.Phone(*u.Whatsapp)
	}
	if u.IsActive != nil {
		set["isActive"] = *u.IsActive
	}
	return set
}

// Update applies upd and returns the updated job.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Job, error) {
	set := upd.set()
	set["updatedAt"] = s.now().UTC()

	var job models.Job
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Delete removes a job by ID.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
