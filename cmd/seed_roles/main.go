package main

import (
	"log"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"nonprofit-backend/internal/database"
	"nonprofit-backend/internal/model"
)

// 기본 역할 구성 (생성 시점에 시드를 놓친 단체 보정용)
var defaultRoles = []struct {
	Name        string
	Color       string
	IsDefault   bool
	Permissions []string
}{
	{"Administrator", "#d9534f", false, []string{model.PermissionAdmin}},
	{"Board Chair", "#0275d8", false, []string{
		model.PermissionManageMeetings, model.PermissionApproveMinutes,
		model.PermissionManageDocuments, model.PermissionManageTasks,
	}},
	{"Secretary", "#5bc0de", false, []string{
		model.PermissionManageMeetings, model.PermissionEditMinutes, model.PermissionManageDocuments,
	}},
	{"Board Member", "#5cb85c", true, nil},
}

func main() {
	// Load environment variables
	if err := godotenv.Load(".env"); err != nil {
		log.Fatal("Error loading .env file")
	}

	// Connect to database
	db, err := database.ConnectDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connected. Seeding default roles...")

	// Find organizations without any role
	var orgIDs []int64
	err = db.Raw(`
		SELECT o.id FROM organizations o
		LEFT JOIN roles r ON r.org_id = o.id
		WHERE r.id IS NULL
	`).Scan(&orgIDs).Error
	if err != nil {
		log.Fatalf("Failed to find organizations: %v", err)
	}

	if len(orgIDs) == 0 {
		log.Println("All organizations already have roles. Nothing to do.")
		return
	}

	for _, orgID := range orgIDs {
		err := db.Transaction(func(tx *gorm.DB) error {
			for _, def := range defaultRoles {
				color := def.Color
				role := model.Role{
					OrgID:     orgID,
					Name:      def.Name,
					Color:     &color,
					IsDefault: def.IsDefault,
				}
				if err := tx.Create(&role).Error; err != nil {
					return err
				}
				for _, code := range def.Permissions {
					perm := model.RolePermission{RoleID: role.ID, PermissionCode: code}
					if err := tx.Create(&perm).Error; err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			log.Fatalf("Failed to seed roles for org %d: %v", orgID, err)
		}
		log.Printf("Seeded default roles for org %d", orgID)
	}

	log.Printf("Done. Seeded %d organizations.", len(orgIDs))
}
