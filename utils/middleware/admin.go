package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sgkm-college/atkt-backend/database"
	"github.com/sgkm-college/atkt-backend/model"
	"gorm.io/gorm"
)

// AdminAuditLog creates an audit log entry for admin actions
func AdminAuditLog(store database.Storage, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get admin user from context
		adminUser, ok := GetUser(c)
		if !ok || adminUser == nil {
			return c.Next() // Continue without logging if user not found
		}

		// Get database connection
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			return c.Next() // Continue without logging if db error
		}

		// Parse resource ID from params if available
		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		ip := c.IP()
		description := c.Method() + " " + c.Path()

		// Execute the actual handler
		err := c.Next()

		// Only log actions that succeeded
		if err != nil || c.Response().StatusCode() >= 400 {
			return err
		}

		auditLog := model.AdminAuditLog{
			AdminID:     adminUser.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			IPAddress:   ip,
			Description: description,
		}
		db.Create(&auditLog)

		return nil
	}
}
