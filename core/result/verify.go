package result

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	salt    = []byte("alama.core.result.verify")
	NowFunc = time.Now // mockable

	// errors
	ErrInvalidCode = errors.New("invalid verification code")
	ErrCodeExpired = errors.New("verification code expired")

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// codeSigner makes and checks transcript verification codes of the form "<uid>-<day>-<signature>".
// The signature covers the result, its aggregate and the day it was issued, so any change of
// marks after issuance invalidates the code.
type codeSigner struct {
	secretKey []byte
	timeout   time.Duration
}

// every part is base32: its alphabet has no "-", which separates the parts
func encodeUID(id string) string {
	return b32.EncodeToString([]byte(id))
}

// resultIDFromCode extracts the result ID a code refers to, without checking the signature.
func resultIDFromCode(code string) (string, error) {
	parts := strings.SplitN(code, "-", 3)
	if len(parts) != 3 {
		return "", ErrInvalidCode
	}
	idBytes, err := b32.DecodeString(parts[0])
	if err != nil || len(idBytes) == 0 {
		return "", ErrInvalidCode
	}
	return string(idBytes), nil
}

func (s codeSigner) make(tr Transcript) (string, error) {
	return s.makeWithDay(tr, numDaysSince2001(NowFunc()))
}

// verify checks that code was issued for tr and has not expired.
func (s codeSigner) verify(tr Transcript, code string) error {
	parts := strings.SplitN(code, "-", 3)
	if len(parts) != 3 {
		return ErrInvalidCode
	}
	data, err := b32.DecodeString(parts[1])
	if err != nil {
		return ErrInvalidCode
	}
	day, err := strconv.Atoi(string(data))
	if err != nil {
		return ErrInvalidCode
	}

	// check that the code has not been tampered with
	want, err := s.makeWithDay(tr, day)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 0 {
		return ErrInvalidCode
	}

	if (numDaysSince2001(NowFunc()) - day) > int(s.timeout/(24*time.Hour)) {
		return ErrCodeExpired
	}
	return nil
}

func (s codeSigner) makeWithDay(tr Transcript, day int) (string, error) {
	sig, err := s.sign(hashValue(tr, day))
	if err != nil {
		return "", err
	}
	dayB32 := b32.EncodeToString([]byte(strconv.Itoa(day)))
	return fmt.Sprintf("%s-%s-%s", encodeUID(tr.Result.ID), dayB32, sig), nil
}

func (s codeSigner) sign(val []byte) (string, error) {
	key := sha256.Sum256(append(append([]byte{}, salt...), s.secretKey...))
	h := hmac.New(sha256.New, key[:])
	if _, err := h.Write(val); err != nil {
		return "", err
	}
	return b32.EncodeToString(h.Sum(nil)), nil
}

func hashValue(tr Transcript, day int) []byte {
	var val bytes.Buffer
	val.WriteString(tr.Result.ID)
	val.WriteString(tr.Result.StudentID)
	val.WriteString(string(tr.Result.Exam))
	val.WriteString(strconv.Itoa(tr.Result.Year))
	val.WriteString(tr.Result.UpdatedAt.UTC().Format(time.RFC3339Nano))
	val.WriteString(strconv.FormatFloat(tr.Aggregate.GPA, 'f', 2, 64))
	val.WriteString(string(tr.Aggregate.Grade))
	val.WriteString(strconv.Itoa(day))
	return val.Bytes()
}

func numDaysSince2001(t time.Time) int {
	ref := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(t.Sub(ref).Hours() / 24))
}
