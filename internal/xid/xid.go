package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}

var lastInvoiceStamp atomic.Int64

// Invoice builds a human-readable, time-derived document number such as
// INV-1712345678901. The millisecond stamp is forced strictly increasing so
// two documents created in the same millisecond never share a number; the
// store's unique index is the final guard across processes.
func Invoice(prefix string) string {
	stamp := time.Now().UnixMilli()
	for {
		last := lastInvoiceStamp.Load()
		if stamp <= last {
			stamp = last + 1
		}
		if lastInvoiceStamp.CompareAndSwap(last, stamp) {
			break
		}
	}
	return fmt.Sprintf("%s-%d", prefix, stamp)
}
