package loyalty

// Motivation rules are plain data instead of closure predicates so they can
// be serialized, stored alongside club config and tested in isolation. The
// dispatcher below is the only evaluation logic.

// MatchKind tags how a rule's Value is compared against the visit count
type MatchKind string

const (
	// MatchExactVisits fires when the visit count equals Value
	MatchExactVisits MatchKind = "exact_visits"
	// MatchVisitsMod fires when visits modulo the reward cycle equals Value
	MatchVisitsMod MatchKind = "visits_mod"
)

// MotivationRule is one serializable motivational message rule
type MotivationRule struct {
	ID       string    `json:"id"`
	Category string    `json:"category"`
	Message  string    `json:"message"`
	Kind     MatchKind `json:"kind"`
	Value    int       `json:"value"`
}

// Matches evaluates the rule against a visit count within the given reward
// cycle length.
func (r MotivationRule) Matches(visits, visitsPerReward int) bool {
	switch r.Kind {
	case MatchExactVisits:
		return visits == r.Value
	case MatchVisitsMod:
		if visitsPerReward <= 0 {
			visitsPerReward = DefaultVisitsPerReward
		}
		return visits%visitsPerReward == r.Value
	default:
		return false
	}
}

// DefaultMotivationRules carries over the message set of the original app
func DefaultMotivationRules() []MotivationRule {
	return []MotivationRule{
		{ID: "1", Category: "welcome", Message: "🎉 Bienvenue dans votre parcours fitness ! Chaque passage compte.", Kind: MatchExactVisits, Value: 0},
		{ID: "2", Category: "beginner", Message: "💪 Premier passage validé ! C'est le début d'une belle aventure.", Kind: MatchExactVisits, Value: 1},
		{ID: "3", Category: "progress", Message: "🔥 5 passages déjà ! Vous êtes sur la bonne voie.", Kind: MatchExactVisits, Value: 5},
		{ID: "4", Category: "reward_alert", Message: "🏆 Plus que 2 passages avant votre prochaine récompense !", Kind: MatchVisitsMod, Value: 8},
		{ID: "5", Category: "reward_alert", Message: "🎁 Plus qu'un passage avant votre récompense !", Kind: MatchVisitsMod, Value: 9},
		{ID: "6", Category: "achievement", Message: "🥉 Félicitations ! Vous êtes maintenant membre Argent !", Kind: MatchExactVisits, Value: 30},
		{ID: "7", Category: "achievement", Message: "🥈 Incroyable ! Niveau Or atteint !", Kind: MatchExactVisits, Value: 70},
		{ID: "8", Category: "achievement", Message: "🥇 Exceptionnel ! Vous êtes maintenant Platine !", Kind: MatchExactVisits, Value: 150},
		{ID: "9", Category: "progress", Message: "⚡ 25 passages ! Votre régularité est impressionnante.", Kind: MatchExactVisits, Value: 25},
		{ID: "10", Category: "progress", Message: "🎯 100 passages ! Vous êtes un vrai champion !", Kind: MatchExactVisits, Value: 100},
	}
}

// MotivationFor returns the most specific applicable message for the visit
// count, or nil when no rule matches. Rules later in the list win ties,
// matching the original's "last match" behavior.
func MotivationFor(visits int, cfg RewardConfig, rules []MotivationRule) *MotivationRule {
	var match *MotivationRule
	for i := range rules {
		if rules[i].Matches(visits, cfg.VisitsPerReward) {
			match = &rules[i]
		}
	}
	return match
}
