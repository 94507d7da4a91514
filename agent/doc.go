// Package agent contains the reasoning loop of a single pipeline stage
// (ReasoningAgent) and the coordinator that chains stages (Pipeline).
//
// Execution model:
//   - A ReasoningAgent seeds a fresh conversation per invocation, calls its
//     gateway, parses each reply into a Step and stops on final_answer, on
//     the first failure, or when its iteration budget is spent.
//   - A Pipeline runs stages strictly one after another, passing each
//     stage's compiled solution to the next one by value.
//
// Failures never propagate past a stage: they are logged, reported in
// Result.Outcome and the partial solution is handed forward.
package agent
