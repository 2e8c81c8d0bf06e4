package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/peepalabs/peepa-server/domain/entities"
)

func TestPersonaPrompt(t *testing.T) {
	now := time.Date(2026, time.March, 14, 15, 9, 0, 0, time.UTC)

	prompt := PersonaPrompt(now, nil)
	if !strings.Contains(prompt, "PeepaPoop") {
		t.Error("expected persona name in prompt")
	}
	if !strings.Contains(prompt, now.Format(time.RFC1123)) {
		t.Error("expected current time in prompt")
	}
	if strings.Contains(prompt, "[MEMORY CONTEXT]") {
		t.Error("expected no memory section without memories")
	}
}

func TestPersonaPromptWithMemories(t *testing.T) {
	memories := []entities.MemoryMatch{
		{Content: "Hilla likes dinosaurs", Score: 0.9},
		{Content: "Aiya plays the violin", Score: 0.7},
	}

	prompt := PersonaPrompt(time.Now(), memories)
	if !strings.Contains(prompt, "[MEMORY CONTEXT]") {
		t.Fatal("expected memory section")
	}
	if !strings.Contains(prompt, "- Hilla likes dinosaurs") ||
		!strings.Contains(prompt, "- Aiya plays the violin") {
		t.Errorf("expected memory bullets, got:\n%s", prompt)
	}
}
