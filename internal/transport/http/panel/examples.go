package panelhttp

const exampleObjects = `[
  {"id": "_meta", "name": "Trouble Brewing", "author": "The Pandemonium Institute"},
  {"id": "washerwoman"},
  {"id": "librarian"},
  {"id": "investigator"},
  {"id": "chef"},
  {"id": "butler"},
  {"id": "poisoner"},
  {"id": "imp"}
]`

const exampleStrings = `[
  {"id": "_meta", "name": "Trouble Brewing", "author": "The Pandemonium Institute"},
  "washerwoman",
  "librarian",
  "investigator",
  "chef",
  "butler",
  "poisoner",
  "imp"
]`
