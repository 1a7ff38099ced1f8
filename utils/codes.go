package utils

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var mu sync.Mutex
var seededRand *rand.Rand

func init() {
	seededRand = rand.New(rand.NewSource(time.Now().UnixNano()))
}

// ReferralCodeLength is the number of digits in a referral code.
const ReferralCodeLength = 7

// GenerateReferralCode returns a random 7-digit code. Uniqueness is the
// caller's job.
func GenerateReferralCode() string {
	mu.Lock()
	defer mu.Unlock()

	return fmt.Sprintf("%07d", seededRand.Intn(10000000))
}

// GenerateReportKey names a settlement report object, e.g.
// settlements/2026/03/14/<run id>.json.
func GenerateReportKey(prefix, date, runID string) string {
	if len(date) == 10 {
		date = date[:4] + "/" + date[5:7] + "/" + date[8:]
	}
	if prefix == "" {
		prefix = "settlements"
	}
	return fmt.Sprintf("%s/%s/%s.json", prefix, date, runID)
}
