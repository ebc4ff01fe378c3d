package track

// NotMatched is the sentinel returned for an entry with no assignment,
// mirroring the teacher's unassigned-index convention in hungarian.go.
const NotMatched = -1

// auctionEpsilon is the minimum bid increment. A strictly positive
// epsilon guarantees the auction algorithm terminates; too large a value
// costs solution quality, too small risks more rounds before convergence.
const auctionEpsilon = 1e-6

// auction solves the rectangular maximum-weight assignment problem
// between tracks (rows) and robots (columns) with the Bertsekas
// price-raising auction algorithm, capped at maxIter total bid rounds
// (spec.md §4.3.2: "capped at max_iter iterations ... returns the best
// partial matching found"). Unlike the teacher's Hungarian solver
// (internal/lidar/hungarian.go), which always runs to an exact optimum,
// auction naturally yields a usable partial matching when stopped early,
// which is what the iteration cap requires.
//
// Returns assignment[i] = column index matched to row i, or NotMatched.
func auction(cost [][]float64, maxIter int) []int {
	rows := len(cost)
	assignment := make([]int, rows)
	for i := range assignment {
		assignment[i] = NotMatched
	}
	if rows == 0 {
		return assignment
	}
	cols := len(cost[0])
	if cols == 0 {
		return assignment
	}

	prices := make([]float64, cols)
	owner := make([]int, cols)
	for j := range owner {
		owner[j] = NotMatched
	}

	unassigned := make([]int, rows)
	for i := range unassigned {
		unassigned[i] = i
	}

	iter := 0
	for len(unassigned) > 0 && iter < maxIter {
		iter++

		i := unassigned[0]
		unassigned = unassigned[1:]

		bestJ, bestVal, secondVal := -1, negInf, negInf
		for j := 0; j < cols; j++ {
			val := cost[i][j] - prices[j]
			if val > bestVal {
				secondVal = bestVal
				bestVal = val
				bestJ = j
			} else if val > secondVal {
				secondVal = val
			}
		}
		if bestJ == -1 {
			continue
		}
		if secondVal == negInf {
			secondVal = bestVal
		}

		prices[bestJ] += bestVal - secondVal + auctionEpsilon

		if prev := owner[bestJ]; prev != NotMatched {
			assignment[prev] = NotMatched
			unassigned = append(unassigned, prev)
		}
		owner[bestJ] = i
		assignment[i] = bestJ
	}

	return assignment
}

const negInf = -1e308
