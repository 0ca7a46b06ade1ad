// tokengen выпускает JWT для заданного пользователя. Только для разработки и отладки.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Spok95/tutor-platform/internal/auth"
	"github.com/Spok95/tutor-platform/internal/models"
)

func main() {
	_ = godotenv.Load()

	userID := flag.Int64("user", 0, "id пользователя")
	role := flag.String("role", string(models.Admin), "роль: admin|coordinator|teacher|student|parent")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "секрет подписи (по умолчанию JWT_SECRET)")
	ttl := flag.Duration("ttl", 24*time.Hour, "срок жизни токена")
	flag.Parse()

	if *userID <= 0 {
		log.Fatal("-user must be a positive id")
	}
	if !models.Role(*role).Valid() {
		log.Fatalf("unknown role %q", *role)
	}
	if *secret == "" {
		*secret = "dev-secret"
	}

	tok, err := auth.NewManager(*secret, *ttl).Issue(*userID, models.Role(*role))
	if err != nil {
		log.Fatalf("issue: %v", err)
	}
	fmt.Println(tok)
}
