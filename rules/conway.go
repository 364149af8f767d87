package rules

/*
ApplyConwayRules applies Conway's Game of Life rules to determine the next state of a cell.

A living cell survives with 2 or 3 living neighbors, a dead cell is born with exactly 3:
(alive && neighbors == 2) || neighbors == 3
*/
func ApplyConwayRules(neighbors int, alive bool) bool {
	return (alive && neighbors == 2) || neighbors == 3
}

// Transition returns the next state of a cell together with the change it
// makes to the living count: +1 for a birth, -1 for a death, 0 otherwise.
func Transition(neighbors int, alive bool) (next bool, delta int) {
	next = ApplyConwayRules(neighbors, alive)
	switch {
	case next && !alive:
		delta = 1
	case !next && alive:
		delta = -1
	}
	return next, delta
}
