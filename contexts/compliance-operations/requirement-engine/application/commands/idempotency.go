package commands

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

const idempotencyKeyPrefix = "compliance_idempotency:"

func hashRequest(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
