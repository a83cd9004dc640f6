// Package realtime provides the fixed-period scheduler that drives a
// hybridx.Automaton.
//
// Every tick the scheduler:
//  1. Reads the system state (configuration, velocity, pose, sensors)
//  2. Applies the active behaviour's command, or zero while the servo is off
//  3. Stops here while paused
//  4. Adopts a pending automaton, querying from its start milestone
//  5. Otherwise, if the active behaviour's child converged, pauses at the
//     goal milestone or queries from the converged milestone
//  6. Otherwise queries from the active behaviour's parent
//  7. Asks the DecisionCriterion for the next behaviour
//  8. Switches to it: no-op, in-place retarget or hard switch
//
// # Example Usage
//
//	sched, _ := realtime.NewScheduler(robot, realtime.Config{
//		Period:    time.Millisecond,
//		QueueMode: realtime.Replace,
//	})
//	sched.Start(ctx)
//	sched.SubmitAutomaton(ha)
//
// # Hot-Swap
//
// Automata reach the control loop through a mutex-guarded queue. Producers
// (SubmitAutomaton, and the parser workers behind SubmitDefinition) take the
// lock to push; in Replace mode they first discard anything not yet adopted.
// The tick only tries the lock: when a producer holds it the swap waits for
// the next tick, so the control period never blocks on a worker.
//
// # Switching
//
// When the criterion picks a behaviour other than the active one and both
// allow updates, a goal restated within Config.UpdateThreshold is ignored
// and any other goal is pushed into the running controllers without
// deactivating them. Otherwise the active behaviour is deactivated and the
// new one activated, which may cause a command discontinuity.
//
// Graph edges are templates. A hard switch activates a clone of the chosen
// edge and retargets move only that clone, so automata stay intact, cycles
// keep working, and a replaced automaton is unreferenced once a behaviour
// of its successor is chosen.
//
// # Determinism
//
// Step can be called directly instead of Start. With a deterministic
// System this reproduces a run exactly, which is how the tests drive the
// scheduler.
package realtime
