package engine

import "sort"

// MeldResult is the outcome of validating a candidate meld or
// opening: whether it's valid, and if so its point value (spec.md
// §4.2: "Both functions return (valid, points, reason)").
type MeldResult struct {
	Valid  bool
	Points int
	Err    *RuleError
}

func ok(points int) MeldResult       { return MeldResult{Valid: true, Points: points} }
func fail(err *RuleError) MeldResult { return MeldResult{Valid: false, Err: err} }

// ValidateSequence checks the sequence rules from spec.md §4.2:
// length 3..14, all non-joker cards share a suit, at most one joker,
// ranks (with the joker filling one gap) form a strictly increasing
// consecutive run with the ace usable low (A,2,3,…) or high
// (…,Q,K,A) but never wrapping (K,A,2). Grounded on
// original_source/src/game/validator.py's is_valid_sequence.
func ValidateSequence(cards []Card) MeldResult {
	if len(cards) < 3 {
		return fail(newMeldErr(MeldTooShort, "sequence requires at least 3 cards"))
	}
	if len(cards) > 14 {
		return fail(newMeldErr(MeldTooLong, "sequence cannot exceed 14 cards"))
	}

	jokers, regulars := splitJokers(cards)
	if len(jokers) > 1 {
		return fail(newMeldErr(MeldMultipleJokers, "at most 1 joker per sequence"))
	}
	if len(regulars) == 0 {
		return fail(newMeldErr(MeldOnlyJokers, "sequence cannot be all jokers"))
	}

	suit := regulars[0].Suit
	for _, c := range regulars {
		if c.Suit != suit {
			return fail(newMeldErr(MeldMixedSuitsInSequence, "all cards must share a suit"))
		}
	}

	ranks := rankValues(regulars)
	sort.Ints(ranks)
	if hasDuplicate(ranks) {
		return fail(newMeldErr(MeldNonConsecutive, "duplicate ranks in sequence"))
	}

	numJokers := len(jokers)
	candidates := [][]int{ranks}
	if containsInt(ranks, int(Ace)) {
		aceHigh := replaceValue(ranks, int(Ace), int(AceHigh))
		sort.Ints(aceHigh)
		candidates = append(candidates, aceHigh)
	}

	for _, tryRanks := range candidates {
		fullRanks, placed := resolveSequenceGaps(tryRanks, numJokers)
		if !placed {
			continue
		}
		return ok(sequencePoints(fullRanks))
	}

	if isWrapAttempt(regulars) {
		return fail(newMeldErr(MeldWrap, "sequence wraps past king to ace to low card"))
	}
	return fail(newMeldErr(MeldNonConsecutive, "cards do not form a consecutive sequence"))
}

// resolveSequenceGaps checks whether tryRanks (sorted, ace already
// normalized to 1 or 14 as appropriate) forms a run with gaps of at
// most numJokers, and returns the full rank list including
// joker-filled and joker-extended positions.
func resolveSequenceGaps(tryRanks []int, numJokers int) ([]int, bool) {
	gaps := 0
	full := []int{tryRanks[0]}
	for i := 1; i < len(tryRanks); i++ {
		diff := tryRanks[i] - tryRanks[i-1]
		switch {
		case diff == 1:
			full = append(full, tryRanks[i])
		case diff == 2 && gaps < numJokers:
			gaps++
			full = append(full, tryRanks[i-1]+1, tryRanks[i])
		default:
			return nil, false
		}
	}
	jokersPlaced := gaps
	for jokersPlaced < numJokers {
		switch {
		case full[len(full)-1]+1 <= int(AceHigh):
			full = append(full, full[len(full)-1]+1)
		case full[0]-1 >= int(Ace):
			full = append([]int{full[0] - 1}, full...)
		default:
			return nil, false
		}
		jokersPlaced++
	}
	return full, true
}

// isWrapAttempt heuristically flags the classic wrap shape (a run
// spanning both the low end near ace and the high end near king,
// e.g. K,A,2) so it reports MeldWrap instead of the generic
// MeldNonConsecutive.
func isWrapAttempt(regulars []Card) bool {
	hasAce, hasKing, hasLow := false, false, false
	for _, c := range regulars {
		switch {
		case c.Rank == Ace:
			hasAce = true
		case c.Rank == King:
			hasKing = true
		case c.Rank == 2:
			hasLow = true
		}
	}
	return hasAce && hasKing && hasLow
}

func sequencePoints(fullRanks []int) int {
	total := 0
	for _, r := range fullRanks {
		switch {
		case r == int(Ace):
			total += PointsAceLow
		case r == int(AceHigh):
			total += PointsAceHigh
		case r >= int(Jack):
			total += PointsFace
		default:
			total += r
		}
	}
	return total
}

// ValidateCombination checks the combination rules from spec.md
// §4.2: 3 or 4 cards, all non-joker cards share a rank, at most one
// joker, all non-joker cards have distinct suits. Grounded on
// original_source/src/game/validator.py's is_valid_combination.
func ValidateCombination(cards []Card) MeldResult {
	if len(cards) < 3 || len(cards) > 4 {
		return fail(newMeldErr(MeldTooShort, "combination requires 3 or 4 cards"))
	}

	jokers, regulars := splitJokers(cards)
	if len(jokers) > 1 {
		return fail(newMeldErr(MeldMultipleJokers, "at most 1 joker per combination"))
	}
	if len(regulars) == 0 {
		return fail(newMeldErr(MeldOnlyJokers, "combination cannot be all jokers"))
	}
	if len(regulars) < 2 {
		return fail(newMeldErr(MeldTooShort, "combination needs at least 2 non-joker cards"))
	}

	rank := regulars[0].Rank
	for _, c := range regulars {
		if c.Rank != rank {
			return fail(newMeldErr(MeldUnknownCard, "all cards must share a rank"))
		}
	}

	seen := map[Suit]bool{}
	for _, c := range regulars {
		if seen[c.Suit] {
			return fail(newMeldErr(MeldSameSuitInCombination, "duplicate suit in combination"))
		}
		seen[c.Suit] = true
	}

	points := 0
	for _, c := range regulars {
		points += c.Points(false)
	}
	if len(jokers) > 0 {
		points += regulars[0].Points(false)
	}
	return ok(points)
}

// ValidateMeld tries a candidate as a sequence, then as a
// combination, and reports which type it is on success (spec.md
// §4.2's validate_game / detect_game_type).
func ValidateMeld(cards []Card) (MeldType, MeldResult) {
	seq := ValidateSequence(cards)
	if seq.Valid {
		return MeldSequence, seq
	}
	comb := ValidateCombination(cards)
	if comb.Valid {
		return MeldCombination, comb
	}
	return "", fail(comb.Err)
}

// ValidateOpening checks spec.md §4.2's opening test: every candidate
// meld individually validates, and the sum of their points is at
// least the configured threshold. When rules.OpeningWithoutJoker is
// set, a joker's own point contribution does not count toward the
// threshold unless the joker-free melds alone already reach it
// (SPEC_FULL.md domain-stack decision, §6 openingWithoutJoker flag).
func ValidateOpening(melds [][]Card, rules HouseRules) MeldResult {
	if len(melds) == 0 {
		return fail(newErr(ErrOpeningBelowThreshold, "no melds submitted"))
	}

	total := 0
	cleanTotal := 0
	for _, cards := range melds {
		_, result := ValidateMeld(cards)
		if !result.Valid {
			return fail(result.Err)
		}
		total += result.Points

		jokers, regulars := splitJokers(cards)
		if len(jokers) == 0 {
			cleanTotal += result.Points
		} else {
			cleanPoints := 0
			for _, c := range regulars {
				cleanPoints += c.Points(false)
			}
			cleanTotal += cleanPoints
		}
	}

	threshold := rules.OpeningThreshold
	if threshold == 0 {
		threshold = 40
	}

	effective := total
	if rules.OpeningWithoutJoker && cleanTotal < threshold {
		effective = cleanTotal
	}

	if effective < threshold {
		return MeldResult{Valid: false, Points: effective, Err: &RuleError{
			Kind:   ErrOpeningBelowThreshold,
			Points: effective,
		}}
	}
	return ok(total)
}

// CanAttach checks whether card can extend table meld m (spec.md
// §4.2 attach legality).
func CanAttach(card Card, m TableMeld) MeldResult {
	switch m.Type {
	case MeldSequence:
		return canAttachToSequence(card, m)
	case MeldCombination:
		return canAttachToCombination(card, m)
	default:
		return fail(newMeldErr(MeldUnknownCard, "unknown meld type"))
	}
}

func canAttachToSequence(card Card, m TableMeld) MeldResult {
	if card.IsJoker() {
		if m.jokerCount() >= 1 {
			return fail(newMeldErr(MeldMultipleJokers, "sequence already has a joker"))
		}
		return ok(card.Points(false))
	}

	_, regulars := splitJokers(m.Cards)
	if len(regulars) == 0 {
		return fail(newMeldErr(MeldUnknownCard, "sequence has no regular cards"))
	}
	suit := regulars[0].Suit
	if card.Suit != suit {
		return fail(newMeldErr(MeldMixedSuitsInSequence, "different suit than sequence"))
	}

	seqRanks, ok2 := sequenceRanks(m.Cards)
	if !ok2 {
		return fail(newMeldErr(MeldNonConsecutive, "table sequence is not resolvable"))
	}
	minRank, maxRank := minMax(seqRanks)

	rank := int(card.Rank)
	if card.Rank == Ace {
		if minRank == 2 {
			return ok(PointsAceLow)
		}
		if maxRank == int(King) {
			return ok(PointsAceHigh)
		}
		return fail(newMeldErr(MeldNonConsecutive, "ace does not attach to this sequence"))
	}

	if rank == minRank-1 && rank >= int(Ace) {
		return ok(card.Points(false))
	}
	if rank == maxRank+1 && rank <= int(King) {
		return ok(card.Points(false))
	}
	return fail(newMeldErr(MeldNonConsecutive, "card does not extend the sequence"))
}

func canAttachToCombination(card Card, m TableMeld) MeldResult {
	if len(m.Cards) >= 4 {
		return fail(newMeldErr(MeldTooLong, "combination already has 4 cards"))
	}
	_, regulars := splitJokers(m.Cards)
	if len(regulars) == 0 {
		return fail(newMeldErr(MeldUnknownCard, "combination has no regular cards"))
	}

	if card.IsJoker() {
		if m.jokerCount() >= 1 {
			return fail(newMeldErr(MeldMultipleJokers, "combination already has a joker"))
		}
		return ok(regulars[0].Points(false))
	}

	if card.Rank != regulars[0].Rank {
		return fail(newMeldErr(MeldUnknownCard, "card must share the combination's rank"))
	}
	for _, c := range regulars {
		if c.Suit == card.Suit {
			return fail(newMeldErr(MeldSameSuitInCombination, "suit already present"))
		}
	}
	return ok(card.Points(false))
}

// sequenceRanks resolves the rank positions of a table sequence,
// using 14 for an ace placed high, filling remaining joker slots at
// either end. Mirrors original_source/src/game/validator.py's
// _get_sequence_ranks.
func sequenceRanks(cards []Card) ([]int, bool) {
	jokers, regulars := splitJokers(cards)
	if len(regulars) == 0 {
		return nil, false
	}
	ranks := rankValues(regulars)
	sort.Ints(ranks)

	aceOptions := []int{1}
	if containsInt(ranks, int(Ace)) {
		aceOptions = []int{1, 14}
	}

	for _, aceVal := range aceOptions {
		tryRanks := replaceValue(ranks, int(Ace), aceVal)
		sort.Ints(tryRanks)

		full := []int{tryRanks[0]}
		jokersUsed := 0
		valid := true
		for i := 1; i < len(tryRanks); i++ {
			diff := tryRanks[i] - tryRanks[i-1]
			switch {
			case diff == 1:
				full = append(full, tryRanks[i])
			case diff == 2 && jokersUsed < len(jokers):
				full = append(full, tryRanks[i-1]+1, tryRanks[i])
				jokersUsed++
			default:
				valid = false
			}
			if !valid {
				break
			}
		}
		if !valid {
			continue
		}
		remaining := len(jokers) - jokersUsed
		for i := 0; i < remaining; i++ {
			switch {
			case full[len(full)-1]+1 <= 14:
				full = append(full, full[len(full)-1]+1)
			case full[0]-1 >= 1:
				full = append([]int{full[0] - 1}, full...)
			}
		}
		return full, true
	}
	return nil, false
}

// CanSubstituteJoker checks spec.md §4.2's joker-substitution
// legality: the held card must be the exact card (suit+rank) whose
// position the joker fills in m. Deck index is immaterial. Returns
// nil on success.
func CanSubstituteJoker(card Card, m TableMeld) *RuleError {
	joker, hasJoker := firstJoker(m.Cards)
	if !hasJoker {
		return newErr(ErrIllegalMeld, "no joker in this meld")
	}
	if card.IsJoker() {
		return newErr(ErrIllegalMeld, "cannot substitute a joker with a joker")
	}
	_ = joker

	switch m.Type {
	case MeldCombination:
		_, regulars := splitJokers(m.Cards)
		if card.Rank != regulars[0].Rank {
			return newMeldErr(MeldUnknownCard, "card must match the combination's rank")
		}
		for _, c := range regulars {
			if c.Suit == card.Suit {
				return newMeldErr(MeldSameSuitInCombination, "suit already present")
			}
		}
		return nil
	case MeldSequence:
		_, regulars := splitJokers(m.Cards)
		suit := regulars[0].Suit
		if card.Suit != suit {
			return newMeldErr(MeldMixedSuitsInSequence, "different suit than sequence")
		}
		seqRanks, ok2 := sequenceRanks(m.Cards)
		if !ok2 {
			return newMeldErr(MeldNonConsecutive, "table sequence is not resolvable")
		}
		regularRanks := map[int]bool{}
		for _, c := range regulars {
			regularRanks[int(c.Rank)] = true
		}
		for _, r := range seqRanks {
			if regularRanks[r] {
				continue
			}
			checkRank := r
			if r == 14 {
				checkRank = int(Ace)
			}
			if int(card.Rank) == checkRank {
				return nil
			}
		}
		return newMeldErr(MeldUnknownCard, "card does not match the joker's position")
	default:
		return newMeldErr(MeldUnknownCard, "unknown meld type")
	}
}

// DiscardCheck bundles the inputs is_valid_discard needs (spec.md
// §4.2 discard legality).
type DiscardCheck struct {
	Card               Card
	DrawnFromDiscard   *Card
	DeclareDuplicate   bool
	HandAfterDiscard   []Card
	TableMelds         []TableMeld
	PlayerHasOpened    bool
	NumActivePlayers   int
	CardsInHandAfter   int
	FirstRoundComplete bool
}

// ValidateDiscard checks spec.md §4.2's discard legality rules in
// order: picked-up-card restriction, attach-to-table restriction
// (3+ players), and first-round closure restriction.
func ValidateDiscard(chk DiscardCheck) *RuleError {
	if chk.DrawnFromDiscard != nil && chk.Card == *chk.DrawnFromDiscard {
		if !chk.DeclareDuplicate {
			return newErr(ErrDiscardIsPickedUpCard, "cannot discard the card just picked up")
		}
		if !handHasSameRank(chk.HandAfterDiscard, chk.Card) {
			return newErr(ErrDiscardIsPickedUpCard, "declared duplicate not present in hand")
		}
	}

	isClosing := chk.CardsInHandAfter == 0

	if chk.NumActivePlayers > 2 && chk.PlayerHasOpened && !isClosing {
		for _, m := range chk.TableMelds {
			if CanAttach(chk.Card, m).Valid {
				return newErr(ErrDiscardAttachesToTable, "discard attaches to a table meld")
			}
		}
	}

	if isClosing {
		if !chk.PlayerHasOpened {
			return newErr(ErrNotOpened, "cannot close without having opened")
		}
		if !chk.FirstRoundComplete {
			return newErr(ErrCannotCloseFirstRound, "cannot close on the first round")
		}
	}

	return nil
}

// --- small helpers ---

func splitJokers(cards []Card) (jokers, regulars []Card) {
	for _, c := range cards {
		if c.IsJoker() {
			jokers = append(jokers, c)
		} else {
			regulars = append(regulars, c)
		}
	}
	return
}

func firstJoker(cards []Card) (Card, bool) {
	for _, c := range cards {
		if c.IsJoker() {
			return c, true
		}
	}
	return Card{}, false
}

func rankValues(cards []Card) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = int(c.Rank)
	}
	return out
}

func hasDuplicate(sorted []int) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return true
		}
	}
	return false
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func replaceValue(xs []int, from, to int) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		if x == from {
			out[i] = to
		} else {
			out[i] = x
		}
	}
	return out
}

func minMax(xs []int) (int, int) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

func handHasSameRank(hand []Card, target Card) bool {
	for _, c := range hand {
		if !c.IsJoker() && c.Suit == target.Suit && c.Rank == target.Rank {
			return true
		}
	}
	return false
}
