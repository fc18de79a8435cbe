package indexjob

import (
	"strings"
	"testing"
)

func TestChunkTextSplitsLongContentIntoMultiplePieces(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 500; i++ {
		b.WriteString("this is a line of moderately long text used to pad out the document\n")
	}
	pieces := chunkText(b.String(), 200, 50)
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces for long content, got %d", len(pieces))
	}
	for _, p := range pieces {
		if p.StartLine < 1 || p.EndLine < p.StartLine {
			t.Fatalf("invalid line range [%d,%d]", p.StartLine, p.EndLine)
		}
	}
}

func TestChunkTextShortContentIsOnePiece(t *testing.T) {
	pieces := chunkText("line one\nline two\nline three", 1000, 200)
	if len(pieces) != 1 {
		t.Fatalf("expected exactly one piece for short content, got %d", len(pieces))
	}
	if pieces[0].StartLine != 1 || pieces[0].EndLine != 3 {
		t.Fatalf("expected range [1,3], got [%d,%d]", pieces[0].StartLine, pieces[0].EndLine)
	}
}

func TestChunkTextEmptyContentProducesNoPieces(t *testing.T) {
	if pieces := chunkText("", 1000, 200); pieces != nil {
		t.Fatalf("expected nil pieces for empty content, got %v", pieces)
	}
}

func TestChunkTextConsecutivePiecesOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 300; i++ {
		b.WriteString("another padding line for the chunker to work with\n")
	}
	pieces := chunkText(b.String(), 150, 40)
	if len(pieces) < 2 {
		t.Fatalf("expected at least two pieces, got %d", len(pieces))
	}
	if pieces[1].StartLine > pieces[0].EndLine {
		t.Fatalf("expected overlap between piece 1 (ends %d) and piece 2 (starts %d)", pieces[0].EndLine, pieces[1].StartLine)
	}
}

func TestStatusAndModeConstantsAreDistinct(t *testing.T) {
	statuses := map[Status]struct{}{StatusPending: {}, StatusRunning: {}, StatusCompleted: {}, StatusFailed: {}}
	if len(statuses) != 4 {
		t.Fatalf("expected 4 distinct statuses, got %d", len(statuses))
	}
	modes := map[Mode]struct{}{ModeIncremental: {}, ModeFull: {}}
	if len(modes) != 2 {
		t.Fatalf("expected 2 distinct modes, got %d", len(modes))
	}
}
