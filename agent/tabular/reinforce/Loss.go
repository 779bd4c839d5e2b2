package reinforce

import (
	"math"

	"github.com/samuelfneumann/inforeg/agent"
	"github.com/samuelfneumann/inforeg/utils/matutils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// terms holds each term of the composite loss
type terms struct {
	policyGradient float64
	entropy        float64
	value          float64
	actionInfo     float64
	stateInfo      float64
}

func (t terms) total() float64 {
	return t.policyGradient + t.entropy + t.value + t.actionInfo +
		t.stateInfo
}

// loss evaluates the composite loss of u at the current weights. If
// withGrad is true, the gradient of the loss with respect to the logits
// and values is written to the gradients of the parameters. Only rows of
// the logits at u.State and the value at (u.State, u.Goal) have non-zero
// gradient.
//
// The value baseline is treated as a constant in the policy-gradient
// term, as is the ratio of counterfactual to actual policy in the
// state-information term.
func (e *Estimator) loss(u agent.Update, withGrad bool) terms {
	var logitGrad, valueGrad []float64
	if withGrad {
		e.logits.ZeroGrad()
		e.values.ZeroGrad()
		logitGrad = e.logits.GradData()
		valueGrad = e.values.GradData()
	}

	nA := e.spec.Actions
	row := e.logitIndex(u.State, u.Goal, 0)
	logProbs := e.logProbs(u.State, u.Goal)
	probs := probabilities(logProbs)

	var t terms

	// Policy gradient with a value baseline
	vIndex := e.valueIndex(u.State, u.Goal)
	v := e.values.Data()[vIndex]
	advantage := u.Return - v
	t.policyGradient = -logProbs[u.Action] * advantage

	// Entropy bonus
	entropy := stat.Entropy(probs)
	t.entropy = -u.EntropyScale * entropy

	// Value regression
	diff := v - u.Return
	t.value = u.ValueScale * diff * diff

	if withGrad {
		for j := 0; j < nA; j++ {
			dLogP := indicator(j == u.Action) - probs[j]
			logitGrad[row+j] -= advantage * dLogP
			logitGrad[row+j] += u.EntropyScale * probs[j] *
				(logProbs[j] + entropy)
		}
		valueGrad[vIndex] = 2 * u.ValueScale * diff
	}

	if !e.useActionInfo && !e.useStateInfo {
		return t
	}

	// Policies at u.State for every goal
	goalLogProbs := make([][]float64, e.spec.Goals)
	goalProbs := make([][]float64, e.spec.Goals)
	for g := range goalProbs {
		goalLogProbs[g] = e.logProbs(u.State, g)
		goalProbs[g] = probabilities(goalLogProbs[g])
	}

	if e.useActionInfo {
		t.actionInfo = e.actionInfoLoss(u, goalProbs, goalLogProbs,
			logitGrad)
	}
	if e.useStateInfo {
		t.stateInfo = e.stateInfoLoss(u, goalProbs, goalLogProbs, logitGrad)
	}
	return t
}

// actionInfoLoss returns -c_a KL(π(·|s, g) ‖ π̄(·|s)) in bits and adds
// its gradient to logitGrad if logitGrad is not nil
func (e *Estimator) actionInfoLoss(u agent.Update, goalProbs,
	goalLogProbs [][]float64, logitGrad []float64) float64 {
	nG := float64(e.spec.Goals)
	probs := goalProbs[u.Goal]
	base := basePolicy(goalProbs)

	kl := stat.KullbackLeibler(probs, base)
	if logitGrad == nil {
		return -u.ActionInfoScale * kl / math.Ln2
	}

	// The KL divergence depends on the policy at u.Goal directly and
	// through the base policy, and on the policies at all other goals
	// only through the base policy
	scale := -u.ActionInfoScale / math.Ln2
	dKL := make([]float64, e.spec.Actions)
	for g, pg := range goalProbs {
		for k := range dKL {
			dKL[k] = -probs[k] / (nG * base[k])
			if g == u.Goal {
				dKL[k] += goalLogProbs[g][k] - math.Log(base[k]) + 1
			}
		}
		dot := floats.Dot(pg, dKL)

		row := e.logitIndex(u.State, g, 0)
		for j := range dKL {
			logitGrad[row+j] += scale * pg[j] * (dKL[j] - dot)
		}
	}
	return -u.ActionInfoScale * kl / math.Ln2
}

// stateInfoLoss returns -c_s times the log odds, in bits, of the next
// state under the pursued goal relative to its counterfactual average
// over all goals. Goals are assumed to be uniformly distributed. The
// gradient is added to logitGrad if logitGrad is not nil.
func (e *Estimator) stateInfoLoss(u agent.Update, goalProbs,
	goalLogProbs [][]float64, logitGrad []float64) float64 {
	counts := u.StateGoalCounts
	nG := e.spec.Goals
	a := u.Action

	goalCounts := matutils.ColSums(counts)
	totalCount := floats.Sum(goalCounts)
	thisGoalCount := goalCounts[u.Goal]

	// p(s | g') for every goal g'
	cfStateProbs := make([]float64, nG)
	for g := range cfStateProbs {
		cfStateProbs[g] = counts.At(u.State, g) / goalCounts[g]
	}
	thisStateProb := cfStateProbs[u.Goal]

	// p(s' | g) / p(s')
	var nextTotalCount float64
	for g := 0; g < nG; g++ {
		nextTotalCount += counts.At(u.NextState, g)
	}
	nextStateProb := counts.At(u.NextState, u.Goal) / thisGoalCount
	nextStateRatio := nextStateProb / (nextTotalCount / totalCount)

	thisPolicy := goalProbs[u.Goal][a]
	weights := make([]float64, nG)
	var term2 float64
	for g := range weights {
		weights[g] = (cfStateProbs[g] / thisStateProb) *
			(goalProbs[g][a] / thisPolicy)
		term2 += weights[g] * nextStateRatio * goalLogProbs[g][a]
	}
	term2 /= float64(nG)
	term1 := goalLogProbs[u.Goal][a]

	logStateOdds := (term1 - term2) / math.Ln2
	if logitGrad == nil {
		return -u.StateInfoScale * logStateOdds
	}

	scale := -u.StateInfoScale / math.Ln2
	for g, pg := range goalProbs {
		row := e.logitIndex(u.State, g, 0)
		cfScale := weights[g] * nextStateRatio / float64(nG)
		for j := range pg {
			dLogP := indicator(j == a) - pg[j]
			if g == u.Goal {
				logitGrad[row+j] += scale * dLogP
			}
			logitGrad[row+j] -= scale * cfScale * dLogP
		}
	}
	return -u.StateInfoScale * logStateOdds
}

// basePolicy returns the goal-averaged policy
func basePolicy(goalProbs [][]float64) []float64 {
	base := make([]float64, len(goalProbs[0]))
	for _, p := range goalProbs {
		floats.Add(base, p)
	}
	floats.Scale(1/float64(len(goalProbs)), base)
	return base
}

// actionInformation returns the KL divergence in bits between the
// policy for goal and the goal-averaged policy, given the policies for
// every goal at some state
func actionInformation(goalProbs [][]float64, goal int) float64 {
	return stat.KullbackLeibler(goalProbs[goal], basePolicy(goalProbs)) /
		math.Ln2
}

func indicator(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
