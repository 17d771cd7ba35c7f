// Package afcl decodes function-choreography documents into workflow
// descriptors.
//
// Documents are YAML; JSON documents are read through the same decoder. The
// root carries "name", "dataIns", "dataOuts" and "workflowBody". Each body
// entry is a single-key mapping naming its kind:
//
//	workflowBody:
//	  - function:
//	      name: add
//	      type: adder
//	      dataIns:
//	        - { name: a, type: number, source: calc/a }
//	      dataOuts:
//	        - { name: sum, type: number }
//	      properties:
//	        - { name: resource, value: "https://fn.example/add" }
//	  - parallelFor:
//	      name: loop
//	      loopCounter: { name: i, type: number, from: "0", to: calc/n, step: "1" }
//	      loopBody: [ ... ]
//
// The compound kinds are "if" (then, else), "switch" (dataEval, cases with
// functions, default), "parallel" (parallelBody of sections), "parallelFor"
// (loopCounter, loopBody) and "sequence" (sequenceBody).
package afcl
