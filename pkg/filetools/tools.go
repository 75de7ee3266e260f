package filetools

import (
	"os"

	"github.com/spf13/afero"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// Agent is the agent name the file tools are registered under
const Agent = "file"

// Domain describes the file tools to the planner
const Domain = "operating on the local filesystem. " +
	"Interpret 'previous directory' or 'parent directory' as '..' and 'two levels up' as '../..'. " +
	"Paths starting with '~' are relative to the user's home directory. " +
	"Relative paths are resolved against the current directory, which change_directory updates for later steps."

// fileTools binds the tool handlers to a filesystem
type fileTools struct {
	fs afero.Fs

	// executable locates the running binary for get_command_line_directory
	executable func() (string, error)
}

func integer(name, desc string, def int) toolexecutor.ToolParameter {
	return toolexecutor.ToolParameter{Name: name, Type: toolexecutor.TypeInteger, Description: desc, Default: def}
}

func boolean(name, desc string) toolexecutor.ToolParameter {
	return toolexecutor.ToolParameter{Name: name, Type: toolexecutor.TypeBoolean, Description: desc, Default: false}
}

func optional(name, desc string) toolexecutor.ToolParameter {
	return toolexecutor.ToolParameter{Name: name, Type: toolexecutor.TypeOptionalString, Description: desc}
}

func str(name, desc string, def interface{}) toolexecutor.ToolParameter {
	if def == nil {
		return toolexecutor.ToolParameter{Name: name, Type: toolexecutor.TypeString, Description: desc, Required: true}
	}
	return toolexecutor.ToolParameter{Name: name, Type: toolexecutor.TypeString, Description: desc, Default: def}
}

var (
	pathParam     = str("path", "Directory, relative to the current directory", ".")
	filenameParam = str("filename", "Name of the file", nil)
	encodingParam = toolexecutor.ToolParameter{Name: "encoding_format", Type: toolexecutor.TypeString, Description: "Encoding: base64",
		Default: "base64", Enum: []interface{}{"base64"}}
)

// Tools returns the static file tool table in listing order
func Tools(fs afero.Fs) []toolexecutor.Tool {
	f := &fileTools{fs: fs, executable: os.Executable}

	return []toolexecutor.Tool{
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "get_working_directory",
				Description: "Show the current working directory.",
			},
			Handler: f.getWorkingDirectory,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "change_directory",
				Description: "Change the current working directory for the following steps.",
				Parameters:  []toolexecutor.ToolParameter{str("path", "Directory to move into", nil)},
			},
			Handler: f.changeDirectory,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "list_files",
				Description: "List the files (not directories) in a directory.",
				Parameters:  []toolexecutor.ToolParameter{pathParam},
			},
			Handler: f.listFiles,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "list_directories",
				Description: "List the directories (not files) in a directory.",
				Parameters:  []toolexecutor.ToolParameter{pathParam},
			},
			Handler: f.listDirectories,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "list_directory_tree",
				Description: "Show the tree of files and directories below a directory up to a depth (0 lists only its entries).",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					{Name: "max_depth", Type: toolexecutor.TypeInteger, Description: "Maximum depth to descend", Default: 3},
				},
			},
			Handler: f.listDirectoryTree,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "view_file",
				Description: "Show the contents of a file.",
				Parameters:  []toolexecutor.ToolParameter{pathParam, filenameParam},
			},
			Handler: f.viewFile,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "create_file",
				Description: "Create a new file with optional content. Fails if the file already exists.",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					filenameParam,
					str("content", "Initial content", ""),
				},
			},
			Handler: f.createFile,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "add_content_to_file",
				Description: "Append content to an existing file, or overwrite it when append is false.",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					filenameParam,
					str("content", "Content to write", nil),
					{Name: "append", Type: toolexecutor.TypeBoolean, Description: "Append instead of overwriting", Default: true},
				},
			},
			Handler: f.addContentToFile,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "rename_file",
				Description: "Rename a file within its directory.",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					filenameParam,
					str("new_filename", "New name for the file", nil),
				},
			},
			Handler: f.renameFile,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "copy_file",
				Description: "Copy a file to another directory, optionally under a new name.",
				Parameters: []toolexecutor.ToolParameter{
					str("source_path", "Directory containing the file", "."),
					filenameParam,
					str("dest_path", "Destination directory", "."),
					{Name: "dest_filename", Type: toolexecutor.TypeOptionalString, Description: "Name at the destination; the original name when omitted"},
				},
			},
			Handler: f.copyFile,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "move_file",
				Description: "Move a file to another directory.",
				Parameters: []toolexecutor.ToolParameter{
					str("source_path", "Directory containing the file", "."),
					filenameParam,
					str("dest_path", "Destination directory", "."),
				},
			},
			Handler: f.moveFile,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "delete_file",
				Description: "Delete a file.",
				Parameters:  []toolexecutor.ToolParameter{pathParam, filenameParam},
			},
			Handler: f.deleteFile,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "file_exists",
				Description: "Check whether a file exists.",
				Parameters:  []toolexecutor.ToolParameter{pathParam, filenameParam},
			},
			Handler: f.fileExists,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "replace_text_in_file",
				Description: "Replace every occurrence of a text in a file.",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					filenameParam,
					str("old_text", "Text to replace", nil),
					str("new_text", "Replacement text", nil),
				},
			},
			Handler: f.replaceTextInFile,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "count_lines_in_file",
				Description: "Count the lines in a file.",
				Parameters:  []toolexecutor.ToolParameter{pathParam, filenameParam},
			},
			Handler: f.countLinesInFile,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "find_frequent_word",
				Description: "Find the most frequent word in a file.",
				Parameters:  []toolexecutor.ToolParameter{pathParam, filenameParam},
			},
			Handler: f.findFrequentWord,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "search_files_by_name",
				Description: "Find files in a directory whose name matches a wildcard pattern such as *.txt (case-insensitive).",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					str("pattern", "Wildcard pattern", nil),
				},
			},
			Handler: f.searchFilesByName,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "search_text_across_files",
				Description: "Search text files below a directory for lines matching a regular expression (case-insensitive).",
				Parameters: []toolexecutor.ToolParameter{
					str("pattern", "Regular expression", nil),
					str("directory", "Directory to search", "."),
				},
			},
			Handler: f.searchTextAcrossFiles,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "find_large_files",
				Description: "Find files larger than a size in megabytes below a directory.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "min_size_mb", Type: toolexecutor.TypeInteger, Description: "Minimum size in megabytes", Required: true},
					pathParam,
				},
			},
			Handler: f.findLargeFiles,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "create_directory",
				Description: "Create a directory, including missing parents.",
				Parameters:  []toolexecutor.ToolParameter{str("path", "Directory to create", nil)},
			},
			Handler: f.createDirectory,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "delete_directory",
				Description: "Delete a directory and everything in it.",
				Parameters:  []toolexecutor.ToolParameter{str("path", "Directory to delete", nil)},
			},
			Handler: f.deleteDirectory,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "get_file_metadata",
				Description: "Show the size, modification time and permissions of a file.",
				Parameters:  []toolexecutor.ToolParameter{pathParam, filenameParam},
			},
			Handler: f.getFileMetadata,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "get_directory_size",
				Description: "Compute the total size of a directory and its contents.",
				Parameters:  []toolexecutor.ToolParameter{pathParam},
			},
			Handler: f.getDirectorySize,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "get_file_hash",
				Description: "Compute the hash of a file.",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					filenameParam,
					{Name: "algorithm", Type: toolexecutor.TypeString, Description: "Hash algorithm: md5, sha1 or sha256", Default: "sha256",
						Enum: []interface{}{"md5", "sha1", "sha256"}},
				},
			},
			Handler: f.getFileHash,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "find_duplicate_files",
				Description: "Find groups of files with identical content below a directory.",
				Parameters:  []toolexecutor.ToolParameter{str("dir_path", "Directory to search", ".")},
			},
			Handler: f.findDuplicateFiles,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "remove_duplicates",
				Description: "Delete duplicate files below a directory, keeping the first copy of each group.",
				Parameters:  []toolexecutor.ToolParameter{str("dir_path", "Directory to clean up", ".")},
			},
			Handler: f.removeDuplicates,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "set_file_permissions",
				Description: "Set the permissions of a file from an octal string such as 644 or 755.",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					filenameParam,
					str("permissions", "Octal permissions", nil),
				},
			},
			Handler: f.setFilePermissions,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "copy_directory",
				Description: "Copy a directory and everything in it. A non-empty destination is only replaced when overwrite is true.",
				Parameters: []toolexecutor.ToolParameter{
					str("source_path", "Directory to copy", nil),
					str("destination_path", "Path of the copy", nil),
					boolean("overwrite", "Replace an existing non-empty destination"),
				},
			},
			Handler: f.copyDirectory,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "move_directory",
				Description: "Move a directory and everything in it. An existing destination is only replaced when overwrite is true.",
				Parameters: []toolexecutor.ToolParameter{
					str("source_path", "Directory to move", nil),
					str("destination_path", "New path of the directory", nil),
					boolean("overwrite", "Replace an existing destination"),
				},
			},
			Handler: f.moveDirectory,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "empty_cleanup",
				Description: "Find empty files and empty directories below a directory, and optionally delete them.",
				Parameters: []toolexecutor.ToolParameter{
					str("path", "Directory to scan", "."),
					boolean("delete_empty_dirs", "Delete the empty directories found"),
					boolean("delete_empty_files", "Delete the empty files found"),
				},
			},
			Handler: f.emptyCleanup,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "read_file_segment",
				Description: "Show a range of lines of a file.",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					filenameParam,
					integer("start_line", "First line to show, starting at 1", 1),
					integer("end_line", "Last line to show, inclusive; 0 reads to the end", 0),
					integer("num_lines", "Number of lines to show from start_line; overrides end_line when above 0", 0),
				},
			},
			Handler: f.readFileSegment,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "insert_content_at_line",
				Description: "Insert content before a line of a file; a line past the end appends.",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					filenameParam,
					str("content", "Content to insert", nil),
					integer("line_number", "Line the content is inserted before, starting at 1", 1),
				},
			},
			Handler: f.insertContentAtLine,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "delete_lines_from_file",
				Description: "Delete a range of lines from a file, or every line matching a regular expression.",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					filenameParam,
					integer("start_line", "First line to delete, starting at 1; 0 means the first line", 0),
					integer("end_line", "Last line to delete, inclusive; 0 means the last line", 0),
					optional("pattern", "Regular expression; matching lines are deleted and the range is ignored"),
				},
			},
			Handler: f.deleteLinesFromFile,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "search_file_content",
				Description: "List the lines of one file that contain a text (case-insensitive).",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					filenameParam,
					str("search_term", "Text to look for", nil),
				},
			},
			Handler: f.searchFileContent,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "compare_files",
				Description: "Check whether two files have identical content.",
				Parameters: []toolexecutor.ToolParameter{
					str("file1_path", "Path of the first file", nil),
					str("file2_path", "Path of the second file", nil),
				},
			},
			Handler: f.compareFiles,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "diff_files",
				Description: "Show the line differences between two text files as a unified diff.",
				Parameters: []toolexecutor.ToolParameter{
					str("file1_path", "Path of the original file", nil),
					str("file2_path", "Path of the changed file", nil),
				},
			},
			Handler: f.diffFiles,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "create_archive",
				Description: "Pack a file or directory into a zip, tar or gzipped tar archive.",
				Parameters: []toolexecutor.ToolParameter{
					str("source_path", "File or directory to archive", nil),
					str("destination_directory", "Directory the archive is written to", "."),
					optional("archive_name", "Archive name without extension; the source name when omitted"),
					{Name: "format", Type: toolexecutor.TypeString, Description: "Archive format: zip, tar or gztar", Default: "zip",
						Enum: []interface{}{"zip", "tar", "gztar"}},
				},
			},
			Handler: f.createArchive,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "extract_archive",
				Description: "Extract a .zip, .tar, .tar.gz or .tgz archive into a directory. Existing files are never overwritten.",
				Parameters: []toolexecutor.ToolParameter{
					str("archive_path", "Path of the archive", nil),
					str("destination_path", "Directory to extract into", "."),
				},
			},
			Handler: f.extractArchive,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "create_temp_file",
				Description: "Create an empty file with a unique name, in the system temp directory unless a directory is given.",
				Parameters: []toolexecutor.ToolParameter{
					str("suffix", "Name suffix such as .txt", ""),
					str("prefix", "Name prefix", "tmp"),
					optional("directory", "Directory to create the file in"),
				},
			},
			Handler: f.createTempFile,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "create_temp_directory",
				Description: "Create an empty directory with a unique name, in the system temp directory unless a directory is given.",
				Parameters: []toolexecutor.ToolParameter{
					str("prefix", "Name prefix", "tmp"),
					optional("directory", "Directory to create it in"),
				},
			},
			Handler: f.createTempDirectory,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "encode_file_content",
				Description: "Show the content of a file encoded as base64.",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					filenameParam,
					encodingParam,
				},
			},
			Handler: f.encodeFileContent,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "decode_file_content",
				Description: "Decode a base64 file and show the result, or save it to a new file.",
				Parameters: []toolexecutor.ToolParameter{
					pathParam,
					filenameParam,
					encodingParam,
					optional("output_filename", "File to write the decoded bytes to, next to the input; it must not exist"),
				},
			},
			Handler: f.decodeFileContent,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "get_root_directory",
				Description: "Show the root directory of the filesystem the current directory is on.",
			},
			Handler: f.getRootDirectory,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "get_command_line_directory",
				Description: "Show the directory containing the toolpilot executable.",
			},
			Handler: f.getCommandLineDirectory,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "check_os",
				Description: "Show the operating system and CPU architecture.",
			},
			Handler: f.checkOS,
		},
	}
}

// Register adds the file tools allowed by policy to the registry
func Register(reg *toolexecutor.Registry, fs afero.Fs, policy *toolexecutor.ToolPolicy) error {
	return reg.RegisterTools(Tools(fs), policy)
}

// Classifier returns the confirmation rules for file tools
func Classifier() *toolexecutor.Classifier {
	return toolexecutor.NewClassifier("delete_file", "delete_directory", "remove_duplicates", "set_file_permissions",
		"delete_lines_from_file").
		WithRule("add_content_to_file", toolexecutor.ArgEquals("append", false)).
		WithRule("copy_directory", toolexecutor.ArgEquals("overwrite", true)).
		WithRule("move_directory", toolexecutor.ArgEquals("overwrite", true)).
		WithRule("empty_cleanup", toolexecutor.AnyOf(
			toolexecutor.ArgEquals("delete_empty_dirs", true),
			toolexecutor.ArgEquals("delete_empty_files", true),
		))
}
