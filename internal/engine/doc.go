// Package engine evaluates compiled dice graphs.
//
// Evaluation is suspend/resume: the engine never produces randomness
// itself. Context.Eval walks the graph and, when it meets dice, pushes
// Requests and reports the node as not ready. The caller answers with
// Responses through Context.Apply and evaluates again. Explode, compound and
// reroll nodes keep a dynamic state between rounds and ask for more dice
// until their comparator, their lt/lc limits or the dice themselves end them.
//
// Session wraps a Context with the round and dice budgets and a small state
// machine, and renders the result once the root is computed. VisualSession
// adapts a Session to a 3D dice box that can only roll some faces.
//
// DETERMINISM:
//
// Given the same graph and the same Responses, a session produces the same
// values, the same remove lists and the same display tree. Children are
// evaluated in argument order, so requests are emitted in a stable order.
//
// ERRORS:
//
// Evaluation failures are *RuntimeError values with a code. Every runtime
// error other than INVALID_STATE is fatal for the session.
package engine
