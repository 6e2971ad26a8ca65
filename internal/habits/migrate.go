package habits

import (
	"github.com/julianstephens/stronghabit/internal/constants"
	"github.com/julianstephens/stronghabit/internal/logger"
	"github.com/julianstephens/stronghabit/internal/models"
)

// migrateDocument upgrades a restored document to the current version.
// Documents written before versioning are treated as version 1; unknown
// versions are passed through unchanged.
func migrateDocument(doc models.StorageDocument) models.StorageDocument {
	switch doc.Version {
	case 0:
		doc.Version = constants.DocumentVersion
	case constants.DocumentVersion:
	default:
		logger.Warn("Restoring document with unknown version", "version", doc.Version, "supported", constants.DocumentVersion)
	}
	return doc
}
