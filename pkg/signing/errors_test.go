package signing

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
		code Code
	}{
		{"flow error", InvalidData(errors.New("bad")), KindCorruptData, CodeInvalidData},
		{"wrapped flow error", errors.Wrap(NewFlowError(KindUnknown, CodeResource, nil), "collect"), KindUnknown, CodeResource},
		{"rejection", ErrRejected, KindUserRejection, CodeRejected},
		{"abort", fmt.Errorf("waiting: %w", context.Canceled), KindP0, CodeP0Abort},
		{"inactivity", context.DeadlineExceeded, KindP0, CodeP0Inactivity},
		{"p0 inside flow error", NewFlowError(KindCorruptData, CodeInvalidData, context.Canceled), KindP0, CodeP0Abort},
		{"unclassified", errors.New("boom"), KindUnknown, CodeSigningFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, code := Classify(tt.err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "PREV_TXN_HASH_MISMATCH", CodePrevTxnHashMismatch.String())
	assert.Equal(t, "CODE_99", Code(99).String())
	assert.Equal(t, "p0", KindP0.String())
}

func TestParseChainID(t *testing.T) {
	id, err := ParseChainID("xrp")
	assert.NoError(t, err)
	assert.Equal(t, ChainXRP, id)

	_, err = ParseChainID("doge")
	assert.Error(t, err)
}
