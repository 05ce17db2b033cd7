package service

import "errors"

// Setup errors: the battle never starts and nothing is logged as a match.
var (
	ErrProfileNotFound = errors.New("player profile not found")
	ErrNoOpponent      = errors.New("no eligible opponent available")
	ErrAlreadyInBattle = errors.New("player is already in an active battle")
	ErrOnCooldown      = errors.New("battle is on cooldown")
	ErrPartyEmpty      = errors.New("player has no battle-ready party")
	ErrNoGateKeys      = errors.New("no gate keys remaining")
)

// Protocol errors: rejected at the API boundary, session state unchanged.
var (
	ErrSessionNotFound = errors.New("battle session not found")
	ErrNotYourTurn     = errors.New("it is not this participant's turn")
	ErrLateInput       = errors.New("input arrived after the turn was resolved")
	ErrIllegalChoice   = errors.New("choice is not legal in the current state")
	ErrUnknownSkill    = errors.New("skill not found in catalog")
	ErrNotEnoughMP     = errors.New("not enough MP for this skill")
	ErrNotInRaid       = errors.New("player is not part of this raid")
	ErrAlreadyJoined   = errors.New("player already joined this raid")
	ErrDefeated        = errors.New("defeated combatants cannot act")
	ErrBattleOver      = errors.New("battle has already finished")
)
