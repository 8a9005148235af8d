package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/NotescapeAi/notescape-backend/internal/database"
	"github.com/NotescapeAi/notescape-backend/internal/models"
	"github.com/NotescapeAi/notescape-backend/internal/repository"
	"github.com/NotescapeAi/notescape-backend/internal/services"
)

// Pool consumes card-generation jobs from the Redis queue. The queue holds
// job IDs only; all job state lives in Postgres so a crashed worker leaves
// the job inspectable.
type Pool struct {
	redis       *redis.Client
	generator   *services.GeneratorService
	jobRepo     *repository.JobRepo
	noteRepo    *repository.NoteRepo
	flashRepo   *repository.FlashcardRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	generator *services.GeneratorService,
	jobRepo *repository.JobRepo,
	noteRepo *repository.NoteRepo,
	flashRepo *repository.FlashcardRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		generator:   generator,
		jobRepo:     jobRepo,
		noteRepo:    noteRepo,
		flashRepo:   flashRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BRPOP with 30s timeout so the stop channel is checked periodically
		result, err := p.redis.BRPop(ctx, 30*time.Second, database.CardGenQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}

		jobID, err := uuid.Parse(result[1])
		if err != nil {
			log.Printf("Worker %d: bad job id on queue: %q", id, result[1])
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", jobID)
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		job, err := p.jobRepo.GetByID(ctx, jobID)
		if err != nil {
			log.Printf("Worker %d: failed to load job %s: %v", id, jobID, err)
			p.redis.Del(ctx, lockKey)
			continue
		}

		log.Printf("Worker %d: processing job %s (file: %s, cards: %d)", id, job.ID, job.FileID, job.NumCards)
		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		if err := p.processJob(ctx, job); err != nil {
			p.handleFailure(ctx, job, err)
		} else {
			p.jobRepo.UpdateStatus(ctx, job.ID, "completed")
			log.Printf("Job %s completed successfully", job.ID)
		}

		p.redis.Del(ctx, lockKey)
	}
}

// processJob turns the file's note text into persisted flashcards. Cards are
// assigned to source chunks round-robin so file-scoped study queries see all
// of them.
func (p *Pool) processJob(ctx context.Context, job *models.GenerationJob) error {
	text, err := p.noteRepo.FileText(ctx, job.FileID)
	if err != nil {
		return fmt.Errorf("failed to load note text: %w", err)
	}
	if text == "" {
		return fmt.Errorf("file %s has no note text", job.FileID)
	}

	chunkIDs, err := p.noteRepo.ChunkIDsForFile(ctx, job.FileID)
	if err != nil {
		return fmt.Errorf("failed to load chunk ids: %w", err)
	}
	if len(chunkIDs) == 0 {
		return fmt.Errorf("file %s has no chunks", job.FileID)
	}

	generated, err := p.generator.GenerateCards(ctx, text, job.NumCards)
	if err != nil {
		return fmt.Errorf("card generation failed: %w", err)
	}
	if len(generated) == 0 {
		return fmt.Errorf("generator produced no cards")
	}

	cards := make([]models.Flashcard, len(generated))
	for i, g := range generated {
		chunkID := chunkIDs[i%len(chunkIDs)]
		cards[i] = models.Flashcard{
			ClassID:       job.ClassID,
			SourceChunkID: &chunkID,
			Question:      g.Question,
			Answer:        g.Answer,
			Hint:          g.Hint,
			Difficulty:    g.Difficulty,
			Tags:          g.Tags,
		}
	}

	if err := p.flashRepo.CreateBatch(ctx, cards); err != nil {
		return fmt.Errorf("failed to save generated cards: %w", err)
	}
	return nil
}

func (p *Pool) handleFailure(ctx context.Context, job *models.GenerationJob, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < job.MaxRetries {
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		// Re-queue after backoff
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		jobID := job.ID.String()
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), database.CardGenQueue, jobID)
		})
		return
	}

	log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
	p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
	p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)
}
