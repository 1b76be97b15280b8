package gateway

import (
	"fmt"
	"testing"
)

func TestReplayBuffer_SinceReturnsNewer(t *testing.T) {
	rb := NewReplayBuffer(8)
	for seq := int64(1); seq <= 5; seq++ {
		rb.Push(seq, []byte(fmt.Sprintf("m%d", seq)))
	}

	got := rb.Since(3)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries after seq 3, got %d", len(got))
	}
	if string(got[0]) != "m4" || string(got[1]) != "m5" {
		t.Errorf("expected [m4 m5], got [%s %s]", got[0], got[1])
	}
}

func TestReplayBuffer_WrapsAndKeepsNewest(t *testing.T) {
	rb := NewReplayBuffer(3)
	for seq := int64(1); seq <= 5; seq++ {
		rb.Push(seq, []byte(fmt.Sprintf("m%d", seq)))
	}

	if rb.Len() != 3 {
		t.Fatalf("expected capped length 3, got %d", rb.Len())
	}

	got := rb.Since(0)
	want := []string{"m3", "m4", "m5"}
	for i, w := range want {
		if string(got[i]) != w {
			t.Errorf("entry %d = %s, want %s", i, got[i], w)
		}
	}
}

func TestReplayBuffer_CopiesData(t *testing.T) {
	rb := NewReplayBuffer(4)
	data := []byte("original")
	rb.Push(1, data)
	data[0] = 'X'

	got := rb.Since(0)
	if string(got[0]) != "original" {
		t.Errorf("buffer must not alias the caller's slice, got %s", got[0])
	}
}

func TestReplayBuffer_EmptySince(t *testing.T) {
	rb := NewReplayBuffer(4)
	if got := rb.Since(0); got != nil {
		t.Errorf("empty buffer yields nothing, got %v", got)
	}
}

func TestValidateTOTP_EmptySecretDisablesAuth(t *testing.T) {
	if !validateTOTP("", "whatever") {
		t.Error("empty secret must accept any code")
	}
	if validateTOTP("JBSWY3DPEHPK3PXP", "000000") {
		t.Error("a wrong code against a real secret must be rejected")
	}
}
