package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"

	"hostelms/internal/attendance"
	"hostelms/internal/config"
	"hostelms/internal/queue"
	"hostelms/internal/store"
)

const tallyTTL = 45 * 24 * time.Hour

// Worker consumes accepted check-in events and keeps per-hostel daily
// tallies in Redis; a nightly job logs the previous day's totals.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	}

	scheduler := gocron.NewScheduler(time.UTC)
	_, err := scheduler.Every(1).Day().At("00:05").Do(func() {
		logDailyTally(ctx, redisClient, time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02"))
	})
	if err != nil {
		log.Fatalf("schedule daily tally failed: %v", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != queue.TypeAccepted {
			continue
		}

		var evt attendance.AcceptedEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("malformed accepted event: %v", err)
			continue
		}

		key := tallyKey(evt.Date)
		if err := redisClient.Client.HIncrBy(ctx, key, evt.Hostel, 1).Err(); err != nil {
			log.Printf("tally increment failed for %s: %v", evt.RecordID, err)
			continue
		}
		redisClient.Client.Expire(ctx, key, tallyTTL)
		log.Printf("tallied record %s (%s, %s)", evt.RecordID, evt.Hostel, evt.Date)
	}

	log.Println("worker stopped")
}

func tallyKey(date string) string {
	return "hostelms:tally:" + date
}

func logDailyTally(ctx context.Context, r *store.Redis, date string) {
	counts, err := r.Client.HGetAll(ctx, tallyKey(date)).Result()
	if err != nil {
		log.Printf("daily tally read failed for %s: %v", date, err)
		return
	}
	if len(counts) == 0 {
		log.Printf("no accepted check-ins on %s", date)
		return
	}
	for hostelName, count := range counts {
		log.Printf("tally %s: %s=%s", date, hostelName, count)
	}
}
