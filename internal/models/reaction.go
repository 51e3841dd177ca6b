package models

type ReactionAction int

const (
	ReactionAdd ReactionAction = iota
	ReactionReplace
	ReactionRemove
)

// ResolveReaction decides what a react request does given the user's current
// reaction on the message, if any. Same emoji toggles off; another emoji replaces.
func ResolveReaction(existing *Reaction, emoji string) ReactionAction {
	if existing == nil {
		return ReactionAdd
	}
	if existing.Emoji == emoji {
		return ReactionRemove
	}
	return ReactionReplace
}
