package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Spok95/tutor-platform/internal/auth"
	"github.com/Spok95/tutor-platform/internal/models"
	"github.com/Spok95/tutor-platform/internal/users"
)

func TestBootstrapAdmin_TokenNotLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	svc := users.NewService(users.NewMemStore(), logger)
	tokens := auth.NewManager("test-secret", time.Hour)
	ctx := context.Background()

	var out bytes.Buffer
	if err := bootstrapAdmin(ctx, svc, tokens, "Root", &out, logger); err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(out.String())
	tok := line[strings.LastIndex(line, " ")+1:]
	claims, err := tokens.Parse(tok)
	if err != nil {
		t.Fatalf("в выводе нет рабочего токена: %q (%v)", line, err)
	}
	if claims.Role != models.Admin {
		t.Fatalf("токен не администратора: %+v", claims)
	}
	for _, e := range logs.All() {
		if strings.Contains(e.Message, tok) {
			t.Fatalf("токен попал в сообщение лога: %q", e.Message)
		}
		for k, v := range e.ContextMap() {
			if s, ok := v.(string); ok && strings.Contains(s, tok) {
				t.Fatalf("токен попал в поле лога %s", k)
			}
		}
	}

	// повторный запуск: админ уже есть, токен не печатается
	out.Reset()
	if err := bootstrapAdmin(ctx, svc, tokens, "Root", &out, logger); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Fatalf("второй запуск не должен печатать токен: %q", out.String())
	}
}
