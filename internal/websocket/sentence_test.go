package websocket

import (
	"reflect"
	"strings"
	"testing"
)

func TestSentenceSplitterPush(t *testing.T) {
	tests := []struct {
		name     string
		deltas   []string
		want     [][]string
		wantRest string
	}{
		{
			name:     "sentencePerDelta",
			deltas:   []string{"Hi! ", "How are you?"},
			want:     [][]string{{"Hi!"}, {" How are you?"}},
			wantRest: "",
		},
		{
			name:     "sentenceSpansDeltas",
			deltas:   []string{"Once upon ", "a time", ". The end."},
			want:     [][]string{nil, nil, {"Once upon a time.", " The end."}},
			wantRest: "",
		},
		{
			name:     "unterminatedTail",
			deltas:   []string{"First one. And then"},
			want:     [][]string{{"First one."}},
			wantRest: " And then",
		},
		{
			name:     "mixedTerminators",
			deltas:   []string{"Really?! Yes."},
			want:     [][]string{{"Really?", "!", " Yes."}},
			wantRest: "",
		},
		{
			name:     "emptyDelta",
			deltas:   []string{""},
			want:     [][]string{nil},
			wantRest: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &sentenceSplitter{}
			for i, delta := range tt.deltas {
				got := s.Push(delta)
				if !reflect.DeepEqual(got, tt.want[i]) {
					t.Errorf("Push(%q) = %q, want %q", delta, got, tt.want[i])
				}
			}
			if rest := s.Flush(); rest != tt.wantRest {
				t.Errorf("Flush() = %q, want %q", rest, tt.wantRest)
			}
		})
	}
}

func TestSentenceSplitterReconstruction(t *testing.T) {
	deltas := []string{"Boop! ", "Hello my fr", "iend. What shall ", "we play today"}

	s := &sentenceSplitter{}
	var rebuilt strings.Builder
	for _, delta := range deltas {
		for _, sentence := range s.Push(delta) {
			rebuilt.WriteString(sentence)
		}
	}
	rebuilt.WriteString(s.Flush())

	if got, want := rebuilt.String(), strings.Join(deltas, ""); got != want {
		t.Errorf("reconstructed %q, want %q", got, want)
	}
}

func TestSentenceSplitterFlushResets(t *testing.T) {
	s := &sentenceSplitter{}
	s.Push("leftover")
	if rest := s.Flush(); rest != "leftover" {
		t.Fatalf("Flush() = %q", rest)
	}
	if rest := s.Flush(); rest != "" {
		t.Errorf("second Flush() = %q, want empty", rest)
	}
}
