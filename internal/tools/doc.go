// Package tools turns the functions of a contract ABI into invokable tools.
//
// Key concepts:
//   - Generate builds one Tool per FunctionDescriptor, named
//     lower(contract)_function, in ABI order.
//   - Tool.Execute never fails: every error, including a panic, is reported
//     as a Result with Success false.
//   - Registry indexes tools by name for the MCP adapter and the ops API.
package tools
