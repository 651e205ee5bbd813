package listquery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "", want: PageMode},
		{input: "page", want: PageMode},
		{input: "Paged", want: PageMode},
		{input: "accumulate", want: AccumulateMode},
		{input: " infinite ", want: AccumulateMode},
		{input: "scroll", want: AccumulateMode},
		{input: "cursor", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_Appends(t *testing.T) {
	require.False(t, PagePolicy().Appends(0))
	require.False(t, PagePolicy().Appends(3))
	require.False(t, AccumulatePolicy().Appends(0))
	require.True(t, AccumulatePolicy().Appends(1))
}

func TestPolicy_ShouldFetchMore(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		remaining int
		hasMore   bool
		loading   bool
		want      bool
	}{
		{name: "near end", policy: AccumulatePolicy(), remaining: 2, hasMore: true, want: true},
		{name: "at threshold", policy: AccumulatePolicy(), remaining: DefaultScrollThreshold, hasMore: true, want: false},
		{name: "far from end", policy: AccumulatePolicy(), remaining: 40, hasMore: true, want: false},
		{name: "nothing more", policy: AccumulatePolicy(), remaining: 0, hasMore: false, want: false},
		{name: "loading", policy: AccumulatePolicy(), remaining: 0, hasMore: true, loading: true, want: false},
		{name: "page mode", policy: PagePolicy(), remaining: 0, hasMore: true, want: false},
		{name: "custom threshold", policy: Policy{Mode: AccumulateMode, Threshold: 20}, remaining: 15, hasMore: true, want: true},
		{name: "zero threshold uses default", policy: Policy{Mode: AccumulateMode}, remaining: 4, hasMore: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.policy.ShouldFetchMore(tt.remaining, tt.hasMore, tt.loading))
		})
	}
}

func TestPolicy_HasMore(t *testing.T) {
	acc := AccumulatePolicy()
	require.True(t, acc.HasMore(10, 25, 10))
	require.False(t, acc.HasMore(25, 25, 10))

	page := PagePolicy()
	require.True(t, page.HasMore(10, 25, 10))
	require.False(t, page.HasMore(5, 5, 10))
}

func TestStatus_String(t *testing.T) {
	require.Equal(t, "idle", StatusIdle.String())
	require.Equal(t, "loading", StatusLoading.String())
	require.Equal(t, "loaded", StatusLoaded.String())
	require.Equal(t, "error", StatusError.String())
	require.Equal(t, "status(9)", Status(9).String())
}
