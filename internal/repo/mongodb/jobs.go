package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/jobhubhq/jobhub/internal/domain/job"
	"github.com/jobhubhq/jobhub/internal/observability"
	"github.com/jobhubhq/jobhub/internal/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var ErrJobNotFailed = errors.New("job is not failed")

type JobsRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewJobsRepo(database *mongo.Database, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{
		coll: database.Collection("jobs"),
		prom: prom,
	}
}

func (r *JobsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *JobsRepo) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	err := r.observe("jobs.create", func() error {
		_, err := r.coll.InsertOne(ctx, j)
		return err
	})

	if err != nil {
		return job.Job{}, err
	}

	return j, nil
}

// ClaimNext atomically flips the oldest runnable pending job to processing.
// FindOneAndUpdate is the document-store equivalent of SELECT ... FOR UPDATE
// SKIP LOCKED: two workers can never claim the same job.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	now := time.Now().UTC()

	filter := bson.M{
		"status": job.StatusPending,
		"runAt":  bson.M{"$lte": now},
	}

	update := bson.M{
		"$set": bson.M{
			"status":    job.StatusProcessing,
			"lockedAt":  now,
			"lockedBy":  workerID,
			"updatedAt": now,
		},
		"$inc": bson.M{"attempts": 1},
	}

	var j job.Job

	err := r.observe("jobs.claim_next", func() error {
		return r.coll.FindOneAndUpdate(
			ctx,
			filter,
			update,
			options.FindOneAndUpdate().
				SetSort(bson.D{{Key: "runAt", Value: 1}}).
				SetReturnDocument(options.After),
		).Decode(&j)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return job.Job{}, job.ErrJobNotFound
		}

		return job.Job{}, err
	}

	return j, nil
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	return r.setStatus(ctx, "jobs.mark_done", id, bson.M{
		"status":    job.StatusDone,
		"lockedAt":  nil,
		"lockedBy":  nil,
		"updatedAt": time.Now().UTC(),
	})
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id string, lastError string) error {
	return r.setStatus(ctx, "jobs.mark_failed", id, bson.M{
		"status":    job.StatusFailed,
		"lastError": lastError,
		"lockedAt":  nil,
		"lockedBy":  nil,
		"updatedAt": time.Now().UTC(),
	})
}

// Reschedule returns a claimed job to pending with a future run time.
func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, lastError string) error {
	return r.setStatus(ctx, "jobs.reschedule", id, bson.M{
		"status":    job.StatusPending,
		"runAt":     runAt.UTC(),
		"lastError": lastError,
		"lockedAt":  nil,
		"lockedBy":  nil,
		"updatedAt": time.Now().UTC(),
	})
}

func (r *JobsRepo) setStatus(ctx context.Context, op, id string, set bson.M) error {
	var err error

	err = r.observe(op, func() error {
		res, uErr := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})

		if uErr != nil {
			return uErr
		}
		if res.MatchedCount == 0 {
			return job.ErrJobNotFound
		}
		return nil
	})

	return err
}

func (r *JobsRepo) GetByID(ctx context.Context, id string) (job.Job, error) {
	var j job.Job

	err := r.observe("jobs.get_by_id", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&j)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return job.Job{}, job.ErrJobNotFound
		}

		return job.Job{}, err
	}

	return j, nil
}

// ListCursor pages jobs newest-first using an (updatedAt, id) keyset cursor.
func (r *JobsRepo) ListCursor(
	ctx context.Context,
	status *string,
	limit int,
	afterUpdatedAt time.Time,
	afterID string,
) ([]job.Job, *string, bool, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"updatedAt": bson.M{"$lt": afterUpdatedAt}},
			bson.M{"updatedAt": afterUpdatedAt, "_id": bson.M{"$lt": afterID}},
		},
	}

	if status != nil {
		filter["status"] = *status
	}

	var items []job.Job

	err := r.observe("jobs.list_cursor", func() error {
		cur, fErr := r.coll.Find(
			ctx,
			filter,
			options.Find().
				SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}}).
				SetLimit(int64(limit)+1),
		)

		if fErr != nil {
			return fErr
		}

		return cur.All(ctx, &items)
	})

	if err != nil {
		return nil, nil, false, err
	}

	hasMore := len(items) > limit

	if hasMore {
		items = items[:limit]
	}

	var next *string

	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		encoded, cErr := utils.EncodeJobCursor(last.UpdatedAt, last.ID)

		if cErr == nil {
			next = &encoded
		}
	}

	return items, next, hasMore, nil
}

// Retry resets one failed job to pending.
func (r *JobsRepo) Retry(ctx context.Context, id string) error {
	return r.observe("jobs.retry", func() error {
		res, err := r.coll.UpdateOne(
			ctx,
			bson.M{"_id": id, "status": job.StatusFailed},
			bson.M{"$set": bson.M{
				"status":    job.StatusPending,
				"runAt":     time.Now().UTC(),
				"lastError": nil,
				"updatedAt": time.Now().UTC(),
			}},
		)

		if err != nil {
			return err
		}

		if res.MatchedCount == 0 {
			_, gErr := r.GetByID(ctx, id)

			if gErr != nil {
				return gErr
			}

			return ErrJobNotFailed
		}

		return nil
	})
}

// RetryManyFailed requeues up to limit failed jobs.
func (r *JobsRepo) RetryManyFailed(ctx context.Context, limit int) (int64, error) {
	var requeued int64

	err := r.observe("jobs.retry_many_failed", func() error {
		cur, fErr := r.coll.Find(
			ctx,
			bson.M{"status": job.StatusFailed},
			options.Find().
				SetSort(bson.D{{Key: "updatedAt", Value: 1}}).
				SetLimit(int64(limit)).
				SetProjection(bson.M{"_id": 1}),
		)

		if fErr != nil {
			return fErr
		}

		var ids []struct {
			ID string `bson:"_id"`
		}

		if aErr := cur.All(ctx, &ids); aErr != nil {
			return aErr
		}

		if len(ids) == 0 {
			return nil
		}

		raw := make([]string, 0, len(ids))
		for _, v := range ids {
			raw = append(raw, v.ID)
		}

		res, uErr := r.coll.UpdateMany(
			ctx,
			bson.M{"_id": bson.M{"$in": raw}, "status": job.StatusFailed},
			bson.M{"$set": bson.M{
				"status":    job.StatusPending,
				"runAt":     time.Now().UTC(),
				"lastError": nil,
				"updatedAt": time.Now().UTC(),
			}},
		)

		if uErr != nil {
			return uErr
		}

		requeued = res.ModifiedCount
		return nil
	})

	return requeued, err
}
