package transfer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"petledger/internal/transfer"
)

func TestBuildIsDeterministic(t *testing.T) {
	b := transfer.NewMessageBuilder()
	attrs := transfer.Attributes{"Name": "Rex", "Species": "dog", "Breed": "husky"}

	first := b.Build("did:pet:abc", "0xAAA", "0xBBB", attrs)
	second := b.Build("did:pet:abc", "0xAAA", "0xBBB", attrs)

	assert.Equal(t, first, second, "identical inputs must produce byte-identical messages")
}

func TestBuildOrdersAttributes(t *testing.T) {
	b := transfer.NewMessageBuilder()

	msg := b.Build("did:pet:abc", "0xAAA", "0xBBB", transfer.Attributes{
		"Species": "dog",
		"Breed":   "husky",
		"Name":    "Rex",
	})

	assert.Contains(t, msg, "Record: did:pet:abc\n")
	assert.Regexp(t, `(?s)Breed: husky\n.*Name: Rex\n.*Species: dog\n`, msg)
}

func TestSigningDataIsHexOfMessage(t *testing.T) {
	b := transfer.NewMessageBuilder()

	assert.Equal(t, "0x6869", b.SigningData("hi"))
}

func TestChecksumAddress(t *testing.T) {
	cases := map[string]string{
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed": "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xFB6916095CA1DF60BB79CE92CE3EA74C37C5D359": "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	}
	for in, want := range cases {
		assert.Equal(t, want, transfer.ChecksumAddress(in))
	}

	// non-address inputs pass through untouched
	assert.Equal(t, "did:pet:abc", transfer.ChecksumAddress("did:pet:abc"))
	assert.Equal(t, "0xAAA", transfer.ChecksumAddress("0xAAA"))
}

func TestSameAddress(t *testing.T) {
	assert.True(t, transfer.SameAddress("0xBBB", "0xbbb"))
	assert.False(t, transfer.SameAddress("0xBBB", "0xAAA"))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, transfer.StatusInitiated.CanTransitionTo(transfer.StatusSigned))
	assert.True(t, transfer.StatusSigned.CanTransitionTo(transfer.StatusVerified))
	assert.True(t, transfer.StatusVerified.CanTransitionTo(transfer.StatusCompleted))
	assert.True(t, transfer.StatusVerified.CanTransitionTo(transfer.StatusCancelled))

	assert.False(t, transfer.StatusInitiated.CanTransitionTo(transfer.StatusVerified))
	assert.False(t, transfer.StatusSigned.CanTransitionTo(transfer.StatusCompleted))
	assert.False(t, transfer.StatusCompleted.CanTransitionTo(transfer.StatusCancelled))
	assert.False(t, transfer.StatusCancelled.CanTransitionTo(transfer.StatusInitiated))
}

func TestNextStep(t *testing.T) {
	assert.Equal(t, transfer.StepSign, transfer.Record{Status: transfer.StatusInitiated}.NextStep())
	assert.Equal(t, transfer.StepVerify, transfer.Record{Status: transfer.StatusSigned}.NextStep())
	assert.Equal(t, transfer.StepAccept, transfer.Record{Status: transfer.StatusVerified}.NextStep())
	assert.Equal(t, transfer.StepCancelled, transfer.Record{Status: transfer.StatusCancelled}.NextStep())
}
