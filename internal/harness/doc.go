// Package harness runs conformance suites for the where compiler.
//
// A suite is a YAML file of cases. Each case holds a where document,
// compilation settings and the expected outcome: the SQL fragment (and bind
// arguments) or the error code.
//
// # Suite Format
//
//	name: users_basic
//	description: "Equality, ranges and bound parameters on User"
//	models: ../models          # CUE model directory, relative to this file
//	model: User                # default model for every case
//	dialect: postgres          # default dialect for every case
//	cases:
//	  - name: equality
//	    where: {name: John}
//	    sql: '"name" = ''John'''
//	  - name: bound minimum age
//	    bind: true
//	    where: {age: {$gte: 18}}
//	    sql: '"age" >= $1'
//	    args: [18]
//	  - name: regexp on sqlite
//	    dialect: sqlite
//	    where: {name: {$regexp: "^J"}}
//	    error: UNSUPPORTED_OPERATOR
//
// The where field keeps its key order; it is decoded the same way a YAML
// where document is.
//
// # Expectations
//
//   - sql: the compiled fragment must match exactly
//   - args: the bind arguments, compared by canonical JSON
//   - error: a compilation error with this code
//   - verify: the compiled fragment is also checked against the dialect
//     (postgres and sqlite only)
//
// # Usage
//
//	suite, err := harness.LoadSuite("testdata/suites/users.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(ctx, suite)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, f := range result.Failures() {
//	        log.Println(f)
//	    }
//	}
//
// Results are deterministic, so RunWithGolden can snapshot a whole suite.
package harness
