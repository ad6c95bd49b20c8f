package models

import "time"

// Rarity is the ordered scarcity of a reward catalog entry
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

var rarityRank = map[Rarity]int{
	RarityCommon:    0,
	RarityRare:      1,
	RarityEpic:      2,
	RarityLegendary: 3,
}

// Rank returns the ordering of the rarity (common < rare < epic < legendary).
// Unknown rarities rank below common.
func (r Rarity) Rank() int {
	if rank, ok := rarityRank[r]; ok {
		return rank
	}
	return -1
}

// RewardCatalogEntry is an administrator-defined reward tier. It is not owned
// by any member; any member reaching RequiredVisits qualifies.
type RewardCatalogEntry struct {
	ID             string    `json:"id,omitempty"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	RequiredVisits int       `json:"requiredVisits"`
	Rarity         Rarity    `json:"rarity"`
	Emoji          string    `json:"emoji"`
	ClubID         string    `json:"clubId"`
	CreatedAt      time.Time `json:"createdAt"`
}
