package entities

import "time"

// PlayerProfile maps a wallet to its Clash Royale player tag
type PlayerProfile struct {
	WalletID  string    `db:"wallet_id"`
	Tag       string    `db:"tag"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PlayerSummary is display-only player data from the game API
type PlayerSummary struct {
	Tag                   string `json:"tag"`
	Name                  string `json:"name"`
	ExpLevel              int    `json:"expLevel"`
	Trophies              int    `json:"trophies"`
	BestTrophies          int    `json:"bestTrophies"`
	Wins                  int    `json:"wins"`
	Losses                int    `json:"losses"`
	BattleCount           int    `json:"battleCount"`
	ThreeCrownWins        int    `json:"threeCrownWins"`
	ChallengeMaxWins      int    `json:"challengeMaxWins"`
	TournamentBattleCount int    `json:"tournamentBattleCount"`
	Arena                 string `json:"arena,omitempty"`
	Clan                  string `json:"clan,omitempty"`
}
