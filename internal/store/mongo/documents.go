package mongo

import (
	"time"

	"github.com/agentstation/collectionmap/pkg/catalog"
)

type institutionDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	NameKey   string    `bson:"nameKey"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d institutionDoc) model() catalog.Institution {
	return catalog.Institution{
		ID:        d.ID,
		Name:      d.Name,
		NameKey:   d.NameKey,
		CreatedAt: d.CreatedAt,
	}
}

type collectionDoc struct {
	ID            string               `bson:"_id"`
	Name          string               `bson:"name"`
	NameKey       string               `bson:"nameKey"`
	InstitutionID string               `bson:"institutionId"`
	Geolocation   *catalog.Geolocation `bson:"geolocation,omitempty"`
	Description   string               `bson:"description,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt"`
}

func (d collectionDoc) model() catalog.Collection {
	return catalog.Collection{
		ID:            d.ID,
		Name:          d.Name,
		NameKey:       d.NameKey,
		InstitutionID: d.InstitutionID,
		Geolocation:   d.Geolocation,
		Description:   d.Description,
		CreatedAt:     d.CreatedAt,
	}
}
