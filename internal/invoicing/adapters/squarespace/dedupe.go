package squarespace

import (
	"encoding/json"
	"strings"
	"time"
)

const noEmailKey = "__no_email__"

type decodedTransaction struct {
	tx  transaction
	raw json.RawMessage
}

// dedupe keeps one transaction per (customer email, total). The most
// recently modified document wins; on equal timestamps the first one seen
// stays. Output follows the order in which each key was first seen.
func dedupe(docs []decodedTransaction) []decodedTransaction {
	order := make([]string, 0, len(docs))
	kept := make(map[string]decodedTransaction, len(docs))

	for _, doc := range docs {
		if doc.tx.SalesOrderID == "" {
			continue
		}
		key := dedupeKey(doc.tx)
		existing, ok := kept[key]
		if !ok {
			order = append(order, key)
			kept[key] = doc
			continue
		}
		if modifiedAt(existing.tx).Before(modifiedAt(doc.tx)) {
			kept[key] = doc
		}
	}

	out := make([]decodedTransaction, 0, len(order))
	for _, key := range order {
		out = append(out, kept[key])
	}
	return out
}

func dedupeKey(tx transaction) string {
	return normalizeEmail(tx.CustomerEmail) + "|" + totalValue(tx)
}

func normalizeEmail(email string) string {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return noEmailKey
	}
	return trimmed
}

func totalValue(tx transaction) string {
	if value, ok := tx.Total.value(); ok {
		return value
	}
	if value, ok := tx.TotalNetPayment.value(); ok {
		return value
	}
	return "0"
}

// modifiedAt returns the zero time for missing or unparseable timestamps.
func modifiedAt(tx transaction) time.Time {
	if tx.ModifiedOn == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, tx.ModifiedOn)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
