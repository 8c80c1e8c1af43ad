/*

Process of compilation

Program Text ->
	parse ->
Abstract Syntax Tree (ast) ->
	analyze ->
Intermediate Representation (ir) ->
	compile ->
Binary Object (obj) ->
	link ->
Binary Executable

Assembly Text ->
	parseasm ->
Assembly Language (asm) ->
	assemble ->
Binary Object (obj) ->
	link ->
Binary Executable

*/
package compiler
