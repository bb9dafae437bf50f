// Package main provides administrator management utilities for Tribunal.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"tribunal/internal/config"
	"tribunal/internal/database"
	"tribunal/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin/main.go grant-admin <member_id>   - Grant administrator role")
		fmt.Println("  go run ./cmd/admin/main.go revoke-admin <member_id>  - Revoke administrator role")
		fmt.Println("  go run ./cmd/admin/main.go list-admins               - List all administrators")
		fmt.Println("  go run ./cmd/admin/main.go token <member_id>         - Mint a development access token")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	command := os.Args[1]

	switch command {
	case "grant-admin":
		grantAdmin(db, memberIDArg())

	case "revoke-admin":
		revokeAdmin(db, memberIDArg())

	case "list-admins":
		listAdmins(db)

	case "token":
		mintToken(cfg, db, memberIDArg())

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func memberIDArg() uint {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: go run ./cmd/admin/main.go %s <member_id>\n", os.Args[1])
		os.Exit(1)
	}
	id, err := strconv.ParseUint(os.Args[2], 10, 32)
	if err != nil {
		fmt.Printf("Invalid member ID %q\n", os.Args[2])
		os.Exit(1)
	}
	return uint(id)
}

func loadMember(db *gorm.DB, memberID uint) models.Member {
	var member models.Member
	if err := db.First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("Member with ID %d not found\n", memberID)
		} else {
			log.Fatalf("Database error: %v", err)
		}
		os.Exit(1)
	}
	return member
}

func grantAdmin(db *gorm.DB, memberID uint) {
	member := loadMember(db, memberID)

	var existing models.Administrator
	err := db.Where("member_id = ?", member.ID).First(&existing).Error
	if err == nil {
		fmt.Printf("Member %s (ID: %d) is already an administrator\n", member.Nickname, member.ID)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Database error: %v", err)
	}

	admin := models.Administrator{MemberID: member.ID, GrantedAt: time.Now().UTC()}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to grant administrator role: %v", err)
	}

	fmt.Printf("Granted administrator role to %s (ID: %d)\n", member.Nickname, member.ID)
}

func revokeAdmin(db *gorm.DB, memberID uint) {
	member := loadMember(db, memberID)

	result := db.Where("member_id = ?", member.ID).Delete(&models.Administrator{})
	if result.Error != nil {
		log.Fatalf("Failed to revoke administrator role: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		fmt.Printf("Member %s (ID: %d) is not an administrator\n", member.Nickname, member.ID)
		return
	}

	fmt.Printf("Revoked administrator role from %s (ID: %d)\n", member.Nickname, member.ID)
}

func listAdmins(db *gorm.DB) {
	var admins []models.Administrator
	if err := db.Preload("Member").Order("granted_at ASC").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch administrators: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No administrators found")
		return
	}

	fmt.Println("\nCurrent administrators:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		nickname := "?"
		if admin.Member != nil {
			nickname = admin.Member.Nickname
		}
		fmt.Printf("Member ID: %d | Nickname: %s | Granted: %s\n",
			admin.MemberID, nickname, admin.GrantedAt.Format(time.RFC3339))
	}
	fmt.Println("─────────────────────────────────────")
}

// mintToken prints a short-lived development token for the member. Useful for
// exercising the API by hand before the identity service issues real tokens.
func mintToken(cfg *config.Config, db *gorm.DB, memberID uint) {
	member := loadMember(db, memberID)

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss": "tribunal-api",
		"aud": "tribunal-client",
		"sub": strconv.FormatUint(uint64(member.ID), 10),
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(24 * time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Printf("Token for %s (ID: %d), valid 24h:\n%s\n", member.Nickname, member.ID, signed)
}
