// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package provenance

// stdlibModules is the embedded table of Python standard-library
// top-level module names (CPython 3.12 sys.stdlib_module_names, private
// underscore modules dropped).
var stdlibModules = map[string]struct{}{
	"abc": {}, "aifc": {}, "argparse": {}, "array": {}, "ast": {},
	"asyncio": {}, "atexit": {}, "base64": {}, "bdb": {}, "binascii": {},
	"bisect": {}, "builtins": {}, "bz2": {}, "calendar": {}, "cmath": {},
	"cmd": {}, "code": {}, "codecs": {}, "collections": {}, "colorsys": {},
	"compileall": {}, "concurrent": {}, "configparser": {},
	"contextlib": {}, "contextvars": {}, "copy": {}, "copyreg": {},
	"csv": {}, "ctypes": {}, "dataclasses": {}, "datetime": {},
	"dbm": {}, "decimal": {}, "difflib": {}, "dis": {}, "doctest": {},
	"email": {}, "encodings": {}, "enum": {}, "errno": {}, "faulthandler": {},
	"fcntl": {}, "filecmp": {}, "fileinput": {}, "fnmatch": {},
	"fractions": {}, "ftplib": {}, "functools": {}, "gc": {},
	"getopt": {}, "getpass": {}, "gettext": {}, "glob": {}, "graphlib": {},
	"gzip": {}, "hashlib": {}, "heapq": {}, "hmac": {}, "html": {},
	"http": {}, "imaplib": {}, "importlib": {}, "inspect": {}, "io": {},
	"ipaddress": {}, "itertools": {}, "json": {}, "keyword": {},
	"linecache": {}, "locale": {}, "logging": {}, "lzma": {},
	"mailbox": {}, "marshal": {}, "math": {}, "mimetypes": {},
	"mmap": {}, "multiprocessing": {}, "netrc": {}, "numbers": {},
	"operator": {}, "os": {}, "pathlib": {}, "pdb": {}, "pickle": {},
	"pickletools": {}, "pkgutil": {}, "platform": {}, "plistlib": {},
	"poplib": {}, "posixpath": {}, "pprint": {}, "profile": {},
	"pstats": {}, "pty": {}, "pwd": {}, "py_compile": {}, "pydoc": {},
	"queue": {}, "quopri": {}, "random": {}, "re": {}, "readline": {},
	"reprlib": {}, "resource": {}, "runpy": {}, "sched": {},
	"secrets": {}, "select": {}, "selectors": {}, "shelve": {},
	"shlex": {}, "shutil": {}, "signal": {}, "site": {}, "smtplib": {},
	"socket": {}, "socketserver": {}, "sqlite3": {}, "ssl": {},
	"stat": {}, "statistics": {}, "string": {}, "stringprep": {},
	"struct": {}, "subprocess": {}, "symtable": {}, "sys": {},
	"sysconfig": {}, "syslog": {}, "tarfile": {}, "tempfile": {},
	"termios": {}, "textwrap": {}, "threading": {}, "time": {},
	"timeit": {}, "tkinter": {}, "token": {}, "tokenize": {},
	"tomllib": {}, "trace": {}, "traceback": {}, "tracemalloc": {},
	"tty": {}, "turtle": {}, "types": {}, "typing": {}, "unicodedata": {},
	"unittest": {}, "urllib": {}, "uuid": {}, "venv": {}, "warnings": {},
	"wave": {}, "weakref": {}, "webbrowser": {}, "wsgiref": {},
	"xml": {}, "xmlrpc": {}, "zipapp": {}, "zipfile": {}, "zipimport": {},
	"zlib": {}, "zoneinfo": {},
}
