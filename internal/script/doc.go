// Package script loads Lua files that extend the document core.
//
// Scripts run in a sandboxed gopher-lua state with only the base, table,
// string and math libraries. They see one global module, humane:
//
//	-- A behavior whose text cannot be deleted or restyled. Typing into it
//	-- goes after it. apply registers a user command of the same name that
//	-- adds the behavior to the selection.
//	humane.behavior("PROTECT", { add = "form", delete = true, style = true, apply = true })
//
//	-- A user command inserting generated text at the cursor. The function
//	-- receives the selected text and the cursor position.
//	humane.command("SHOUT", function(selected, cursor)
//	  return string.upper(selected)
//	end)
//
// Definitions are collected while scripts load and are applied with
// RegisterBehaviors and RegisterCommands.
package script
